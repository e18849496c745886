package api

import (
	"storefront/internal/currency"
	"storefront/internal/models"
)

// moneyView pairs an amount in paise with its display string
type moneyView struct {
	Paise   int64  `json:"paise"`
	Display string `json:"display"`
}

func money(paise int64) moneyView {
	return moneyView{Paise: paise, Display: currency.ToDisplay(paise)}
}

type orderItemView struct {
	models.OrderItem
	UnitPriceDisplay string `json:"unitPriceDisplay"`
	LineTotal        int64  `json:"lineTotal"`
}

// orderView is an order with display strings added for clients
type orderView struct {
	*models.Order
	Items   []orderItemView `json:"items"`
	Summary struct {
		Subtotal    moneyView `json:"subtotal"`
		GST         moneyView `json:"gst"`
		ShippingFee moneyView `json:"shippingFee"`
		Discount    moneyView `json:"discount"`
		Total       moneyView `json:"total"`
	} `json:"summary"`
}

func newOrderView(o *models.Order) orderView {
	v := orderView{Order: o, Items: make([]orderItemView, 0, len(o.Items))}
	for _, item := range o.Items {
		v.Items = append(v.Items, orderItemView{
			OrderItem:        item,
			UnitPriceDisplay: currency.ToDisplay(item.UnitPrice),
			LineTotal:        item.LineTotal(),
		})
	}
	v.Summary.Subtotal = money(o.Subtotal)
	v.Summary.GST = money(o.Tax)
	v.Summary.ShippingFee = money(o.ShippingFee)
	v.Summary.Discount = money(o.Discount)
	v.Summary.Total = money(o.Total)
	return v
}

func newOrderViews(orders []models.Order) []orderView {
	views := make([]orderView, 0, len(orders))
	for i := range orders {
		views = append(views, newOrderView(&orders[i]))
	}
	return views
}
