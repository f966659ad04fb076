package mongo

import (
	"regexp"

	domaccount "github.com/Zhima-Mochi/bookmarket/internal/domain/account"
	dombook "github.com/Zhima-Mochi/bookmarket/internal/domain/book"
	domorder "github.com/Zhima-Mochi/bookmarket/internal/domain/order"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Emails are stored normalized, so filters normalize before matching.
func orderFilter(f domorder.Filter) bson.M {
	m := bson.M{}
	if f.Customer != "" {
		m["customer"] = domaccount.NormalizeEmail(f.Customer)
	}
	if f.SellerEmail != "" {
		m["seller.email"] = domaccount.NormalizeEmail(f.SellerEmail)
	}
	if f.BookID != "" {
		m["bookId"] = f.BookID
	}
	if f.Status != "" {
		m["status"] = string(f.Status)
	}
	if f.PaymentStatus != "" {
		m["paymentStatus"] = string(f.PaymentStatus)
	}
	if f.TransactionID != "" {
		m["transactionId"] = f.TransactionID
	}
	return m
}

// {id, customer, status=pending, paymentStatus≠paid}
func markPaidFilter(id, customer string) bson.M {
	return bson.M{
		"_id":           id,
		"customer":      domaccount.NormalizeEmail(customer),
		"status":        string(domorder.StatusPending),
		"paymentStatus": bson.M{"$ne": string(domorder.PaymentPaid)},
	}
}

// {id, customer, status=pending, paymentStatus=unpaid}
func cancelFilter(id, customer string) bson.M {
	return bson.M{
		"_id":           id,
		"customer":      domaccount.NormalizeEmail(customer),
		"status":        string(domorder.StatusPending),
		"paymentStatus": string(domorder.PaymentUnpaid),
	}
}

// {id, status∉{cancelled,paid}, paymentStatus≠paid}
func relabelFilter(id string) bson.M {
	return bson.M{
		"_id":           id,
		"status":        bson.M{"$nin": bson.A{string(domorder.StatusCancelled), string(domorder.StatusPaid)}},
		"paymentStatus": bson.M{"$ne": string(domorder.PaymentPaid)},
	}
}

// bookFilter matches the search term against the name with spaces removed,
// case-insensitively.
func bookFilter(f dombook.Filter) bson.M {
	m := bson.M{}
	if f.Status != "" {
		m["status"] = string(f.Status)
	}
	if f.SellerEmail != "" {
		m["seller.email"] = domaccount.NormalizeEmail(f.SellerEmail)
	}
	if term := dombook.NormalizeSearch(f.Search); term != "" {
		m["$expr"] = bson.M{
			"$regexMatch": bson.M{
				"input":   bson.M{"$replaceAll": bson.M{"input": "$name", "find": " ", "replacement": ""}},
				"regex":   regexp.QuoteMeta(term),
				"options": "i",
			},
		}
	}
	return m
}

func bookFindOptions(o dombook.ListOptions) *options.FindOptions {
	field := o.Sort
	if !dombook.ValidSort(field) {
		field = dombook.SortPrice
	}
	dir := 1
	if o.Desc {
		dir = -1
	}
	opts := options.Find().SetSort(bson.D{{Key: field, Value: dir}, {Key: "_id", Value: 1}})
	if o.Limit > 0 {
		opts.SetLimit(int64(o.Limit))
	}
	if o.Skip > 0 {
		opts.SetSkip(int64(o.Skip))
	}
	return opts
}

// decrementFilter only matches while at least n copies remain.
func decrementFilter(id string, n int) bson.M {
	return bson.M{"_id": id, "quantity": bson.M{"$gte": n}}
}
