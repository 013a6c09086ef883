package catalog

import "time"

// Apparel styles offered by the style filter.
const (
	StyleLoose    = "Loose"
	StyleOversize = "Oversize"
	StyleFit      = "Fit"
	StyleStretch  = "Stretch"
)

// Styles lists the known apparel styles in display order.
var Styles = []string{StyleLoose, StyleOversize, StyleFit, StyleStretch}

// OrderStatus is the lifecycle state of an apparel order.
type OrderStatus string

const (
	StatusNew               OrderStatus = "NEW"
	StatusValidated         OrderStatus = "VALIDATED"
	StatusAllocationPending OrderStatus = "ALLOCATION_PENDING"
	StatusAllocated         OrderStatus = "ALLOCATED"
	StatusPickedUp          OrderStatus = "PICKED_UP"
	StatusDelivered         OrderStatus = "DELIVERED"
	StatusDeliveryException OrderStatus = "DELIVERY_EXCEPTION"
	StatusCancelled         OrderStatus = "CANCELLED"
)

// Apparel is one inventory item.
type Apparel struct {
	ID             int64      `json:"id" yaml:"id"`
	Version        int        `json:"version" yaml:"version"`
	CreatedDate    *time.Time `json:"createdDate,omitempty" yaml:"createdDate,omitempty"`
	UpdateDate     *time.Time `json:"updateDate,omitempty" yaml:"updateDate,omitempty"`
	ApparelName    string     `json:"apparelName" yaml:"apparelName"`
	ApparelStyle   string     `json:"apparelStyle" yaml:"apparelStyle"`
	UPC            string     `json:"upc" yaml:"upc"`
	QuantityOnHand int        `json:"quantityOnHand" yaml:"quantityOnHand"`
	Price          float64    `json:"price" yaml:"price"`
	Description    string     `json:"description,omitempty" yaml:"description,omitempty"`
	ImageURL       string     `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
}

// InStock reports whether any units are on hand. List pages only allow
// bulk actions on apparel that is in stock.
func InStock(a Apparel) bool {
	return a.QuantityOnHand > 0
}

// Customer is a buyer of apparel.
type Customer struct {
	ID           int64      `json:"id" yaml:"id"`
	Version      int        `json:"version" yaml:"version"`
	CreatedDate  *time.Time `json:"createdDate,omitempty" yaml:"createdDate,omitempty"`
	UpdateDate   *time.Time `json:"updateDate,omitempty" yaml:"updateDate,omitempty"`
	Name         string     `json:"name" yaml:"name"`
	Email        string     `json:"email,omitempty" yaml:"email,omitempty"`
	PhoneNumber  string     `json:"phoneNumber,omitempty" yaml:"phoneNumber,omitempty"`
	AddressLine1 string     `json:"addressLine1" yaml:"addressLine1"`
	AddressLine2 string     `json:"addressLine2,omitempty" yaml:"addressLine2,omitempty"`
	City         string     `json:"city" yaml:"city"`
	State        string     `json:"state" yaml:"state"`
	PostalCode   string     `json:"postalCode" yaml:"postalCode"`
}

// ApparelOrderLine is one line item of an order.
type ApparelOrderLine struct {
	ID                int64  `json:"id,omitempty" yaml:"id,omitempty"`
	ApparelID         int64  `json:"apparelId" yaml:"apparelId"`
	ApparelName       string `json:"apparelName" yaml:"apparelName"`
	ApparelStyle      string `json:"apparelStyle" yaml:"apparelStyle"`
	UPC               string `json:"upc" yaml:"upc"`
	OrderQuantity     int    `json:"orderQuantity" yaml:"orderQuantity"`
	QuantityAllocated int    `json:"quantityAllocated,omitempty" yaml:"quantityAllocated,omitempty"`
	Status            string `json:"status,omitempty" yaml:"status,omitempty"`
}

// ApparelOrderShipment records one shipment of an order.
type ApparelOrderShipment struct {
	ID             int64     `json:"id,omitempty" yaml:"id,omitempty"`
	ShipmentDate   time.Time `json:"shipmentDate" yaml:"shipmentDate"`
	Carrier        string    `json:"carrier,omitempty" yaml:"carrier,omitempty"`
	TrackingNumber string    `json:"trackingNumber,omitempty" yaml:"trackingNumber,omitempty"`
}

// ApparelOrder is a customer order.
type ApparelOrder struct {
	ID            int64                  `json:"id" yaml:"id"`
	Version       int                    `json:"version" yaml:"version"`
	CreatedDate   *time.Time             `json:"createdDate,omitempty" yaml:"createdDate,omitempty"`
	UpdateDate    *time.Time             `json:"updateDate,omitempty" yaml:"updateDate,omitempty"`
	CustomerID    int64                  `json:"customerId,omitempty" yaml:"customerId,omitempty"`
	CustomerRef   string                 `json:"customerRef,omitempty" yaml:"customerRef,omitempty"`
	PaymentAmount float64                `json:"paymentAmount" yaml:"paymentAmount"`
	Status        OrderStatus            `json:"orderStatus,omitempty" yaml:"orderStatus,omitempty"`
	Lines         []ApparelOrderLine     `json:"apparelOrderLines" yaml:"apparelOrderLines"`
	Shipments     []ApparelOrderShipment `json:"shipments,omitempty" yaml:"shipments,omitempty"`
}

// ApparelForm is the value set of the apparel create/edit form. Optional
// numbers are pointers so an untouched input stays empty.
type ApparelForm struct {
	ApparelName    string   `form:"apparelName"`
	ApparelStyle   string   `form:"apparelStyle"`
	UPC            string   `form:"upc"`
	Price          *float64 `form:"price"`
	QuantityOnHand *int     `form:"quantityOnHand"`
	Description    string   `form:"description"`
	ImageURL       string   `form:"imageUrl"`
}

// Apparel converts validated form values into an Apparel.
func (f ApparelForm) Apparel() Apparel {
	a := Apparel{
		ApparelName:  f.ApparelName,
		ApparelStyle: f.ApparelStyle,
		UPC:          f.UPC,
		Description:  f.Description,
		ImageURL:     f.ImageURL,
	}
	if f.Price != nil {
		a.Price = *f.Price
	}
	if f.QuantityOnHand != nil {
		a.QuantityOnHand = *f.QuantityOnHand
	}
	return a
}

// CustomerForm is the value set of the customer create/edit form.
type CustomerForm struct {
	Name         string `form:"name"`
	Email        string `form:"email"`
	PhoneNumber  string `form:"phoneNumber"`
	AddressLine1 string `form:"addressLine1"`
	AddressLine2 string `form:"addressLine2"`
	City         string `form:"city"`
	State        string `form:"state"`
	PostalCode   string `form:"postalCode"`
}

// Customer converts validated form values into a Customer.
func (f CustomerForm) Customer() Customer {
	return Customer{
		Name:         f.Name,
		Email:        f.Email,
		PhoneNumber:  f.PhoneNumber,
		AddressLine1: f.AddressLine1,
		AddressLine2: f.AddressLine2,
		City:         f.City,
		State:        f.State,
		PostalCode:   f.PostalCode,
	}
}

// ShipmentForm is the value set of the shipment form. ShipmentDate holds
// the raw "YYYY-MM-DDTHH:MM" input.
type ShipmentForm struct {
	ShipmentDate   string `form:"shipmentDate"`
	Carrier        string `form:"carrier"`
	TrackingNumber string `form:"trackingNumber"`
}

// ShipmentInputLayout is the layout of ShipmentForm.ShipmentDate.
const ShipmentInputLayout = "2006-01-02T15:04"

// Shipment converts validated form values into a shipment.
func (f ShipmentForm) Shipment() (ApparelOrderShipment, error) {
	ts, err := time.Parse(ShipmentInputLayout, f.ShipmentDate)
	if err != nil {
		return ApparelOrderShipment{}, err
	}
	return ApparelOrderShipment{
		ShipmentDate:   ts,
		Carrier:        f.Carrier,
		TrackingNumber: f.TrackingNumber,
	}, nil
}

// OrderForm is the value set of the single-line order form.
type OrderForm struct {
	CustomerID    *int64   `form:"customerId"`
	CustomerRef   string   `form:"customerRef"`
	PaymentAmount *float64 `form:"paymentAmount"`
	ApparelID     int64    `form:"apparelId"`
	OrderQuantity *int     `form:"orderQuantity"`
}

// Order converts validated form values into a NEW order with one line.
func (f OrderForm) Order() ApparelOrder {
	o := ApparelOrder{CustomerRef: f.CustomerRef, Status: StatusNew}
	if f.CustomerID != nil {
		o.CustomerID = *f.CustomerID
	}
	if f.PaymentAmount != nil {
		o.PaymentAmount = *f.PaymentAmount
	}
	line := ApparelOrderLine{ApparelID: f.ApparelID}
	if f.OrderQuantity != nil {
		line.OrderQuantity = *f.OrderQuantity
	}
	o.Lines = []ApparelOrderLine{line}
	return o
}
