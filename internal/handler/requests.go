package handler

import (
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/ecommerce-store/internal/domain"
	"github.com/xenking/ecommerce-store/pkg/jxdecimal"
)

type addToCartRequest struct {
	ItemID   string `json:"itemId" validate:"required"`
	Quantity int    `json:"quantity" validate:"gt=0"`
}

func (r *addToCartRequest) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "itemId":
			r.ItemID, err = d.Str()
		case "quantity":
			r.Quantity, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	})
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gt=0"`
}

func (r *updateQuantityRequest) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) != "quantity" {
			return d.Skip()
		}
		var err error
		r.Quantity, err = d.Int()
		return err
	})
}

type checkoutRequest struct {
	UserID     string `json:"userId" validate:"required"`
	CouponCode string `json:"couponCode"`
}

func (r *checkoutRequest) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "userId":
			r.UserID, err = d.Str()
		case "couponCode":
			r.CouponCode, err = decodeOptStr(d)
		default:
			err = d.Skip()
		}
		return err
	})
}

type createItemRequest struct {
	Name  string          `json:"name" validate:"required"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock" validate:"gte=0"`

	hasPrice bool
}

func (r *createItemRequest) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "name":
			r.Name, err = d.Str()
		case "price":
			r.Price, err = jxdecimal.Decode(d)
			r.hasPrice = err == nil
		case "stock":
			r.Stock, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	})
}

// check reports fields the validator cannot see: a zero price is valid,
// an absent one is not.
func (r *createItemRequest) check() error {
	if !r.hasPrice {
		return &domain.InvalidArgumentError{Field: "price", Reason: "must not be blank"}
	}
	return nil
}

type updateItemRequest struct {
	Name  *string          `json:"name" validate:"omitempty,min=1"`
	Price *decimal.Decimal `json:"price"`
	Stock *int             `json:"stock" validate:"omitempty,gte=0"`
}

func (r *updateItemRequest) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if d.Next() == jx.Null {
			return d.Null()
		}
		switch string(key) {
		case "name":
			v, err := d.Str()
			r.Name = &v
			return err
		case "price":
			v, err := jxdecimal.Decode(d)
			r.Price = &v
			return err
		case "stock":
			v, err := d.Int()
			r.Stock = &v
			return err
		default:
			return d.Skip()
		}
	})
}
