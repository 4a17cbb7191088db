package mongo

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jiang666/visitmanagement2-sub000/internal/core/domain"
)

// matchNothing is a predicate no stored document satisfies.
var matchNothing = bson.M{"_id": bson.M{"$exists": false}}

// scopeFilter encodes a visibility scope as a query predicate. It matches
// exactly the documents Scope.Permits accepts.
func scopeFilter(s domain.Scope, ownerField, deptField string) bson.M {
	switch s.Kind {
	case domain.ScopeAll:
		return bson.M{}
	case domain.ScopeDepartment:
		if s.Department == "" {
			return matchNothing
		}
		return bson.M{
			deptField:  s.Department,
			ownerField: bson.M{"$nin": bson.A{"", nil}},
		}
	case domain.ScopeOwner:
		if s.OwnerID == "" {
			return matchNothing
		}
		return bson.M{ownerField: s.OwnerID}
	}
	return matchNothing
}

// and combines non-empty predicates.
func and(preds ...bson.M) bson.M {
	var parts bson.A
	for _, p := range preds {
		if len(p) > 0 {
			parts = append(parts, p)
		}
	}
	switch len(parts) {
	case 0:
		return bson.M{}
	case 1:
		return parts[0].(bson.M)
	}
	return bson.M{"$and": parts}
}

// contains is a case-insensitive substring match.
func contains(s string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(s), "$options": "i"}
}

func pageOptions(page, limit int, sort bson.D) *options.FindOptions {
	opts := options.Find().SetSort(sort)
	if limit > 0 {
		if page < 1 {
			page = 1
		}
		opts.SetSkip(int64((page - 1) * limit)).SetLimit(int64(limit))
	}
	return opts
}
