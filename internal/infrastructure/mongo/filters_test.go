package mongo

import (
	"testing"

	dombook "github.com/Zhima-Mochi/bookmarket/internal/domain/book"
	domorder "github.com/Zhima-Mochi/bookmarket/internal/domain/order"

	"go.mongodb.org/mongo-driver/bson"
)

func TestMarkPaidFilterCarriesPrecondition(t *testing.T) {
	f := markPaidFilter("o1", "ann@example.com")
	if f["_id"] != "o1" || f["customer"] != "ann@example.com" || f["status"] != "pending" {
		t.Fatalf("unexpected filter: %v", f)
	}
	ne, ok := f["paymentStatus"].(bson.M)
	if !ok || ne["$ne"] != "paid" {
		t.Fatalf("paymentStatus must exclude paid: %v", f["paymentStatus"])
	}
}

func TestCancelAndRelabelFilters(t *testing.T) {
	c := cancelFilter("o1", "ann@example.com")
	if c["paymentStatus"] != "unpaid" || c["status"] != "pending" {
		t.Fatalf("unexpected cancel filter: %v", c)
	}
	r := relabelFilter("o1")
	nin, ok := r["status"].(bson.M)["$nin"].(bson.A)
	if !ok || len(nin) != 2 {
		t.Fatalf("relabel filter must exclude terminal statuses: %v", r)
	}
	if relabelTarget(domorder.StatusPaid) {
		t.Fatal("paid is not a relabel target")
	}
}

func TestBookFilterSearch(t *testing.T) {
	f := bookFilter(dombook.Filter{Status: dombook.StatusPublished, Search: " The Hob bit+ "})
	if f["status"] != "published" {
		t.Fatalf("unexpected status: %v", f["status"])
	}
	expr := f["$expr"].(bson.M)["$regexMatch"].(bson.M)
	if expr["regex"] != `thehobbit\+` || expr["options"] != "i" {
		t.Fatalf("unexpected regex: %v", expr)
	}
	if _, ok := bookFilter(dombook.Filter{})["$expr"]; ok {
		t.Fatal("empty search must not add $expr")
	}
}

func TestOrderFilter(t *testing.T) {
	f := orderFilter(domorder.Filter{SellerEmail: "lib@example.com", PaymentStatus: domorder.PaymentPaid})
	if len(f) != 2 || f["seller.email"] != "lib@example.com" || f["paymentStatus"] != "paid" {
		t.Fatalf("unexpected filter: %v", f)
	}
}

func TestBookFindOptions(t *testing.T) {
	o := bookFindOptions(dombook.ListOptions{Sort: "bogus", Desc: true, Limit: 4, Skip: 8})
	sort := o.Sort.(bson.D)
	if sort[0].Key != "price" || sort[0].Value != -1 {
		t.Fatalf("unexpected sort: %v", sort)
	}
	if *o.Limit != 4 || *o.Skip != 8 {
		t.Fatalf("unexpected paging: limit=%d skip=%d", *o.Limit, *o.Skip)
	}
}

func TestDecrementFilter(t *testing.T) {
	f := decrementFilter("b1", 1)
	if f["quantity"].(bson.M)["$gte"] != 1 {
		t.Fatalf("unexpected filter: %v", f)
	}
}

func TestOrderFiltersNormalizeEmails(t *testing.T) {
	f := orderFilter(domorder.Filter{Customer: " Ann@Example.com", SellerEmail: "LIB@example.com", TransactionID: "pi_1"})
	if f["customer"] != "ann@example.com" || f["seller.email"] != "lib@example.com" || f["transactionId"] != "pi_1" {
		t.Fatalf("unexpected filter: %v", f)
	}
	if got := markPaidFilter("o1", "Ann@Example.com")["customer"]; got != "ann@example.com" {
		t.Fatalf("mark paid customer = %v", got)
	}
	if got := cancelFilter("o1", "ANN@example.com")["customer"]; got != "ann@example.com" {
		t.Fatalf("cancel customer = %v", got)
	}
}
