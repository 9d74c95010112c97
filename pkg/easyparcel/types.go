package easyparcel

import "github.com/shopspring/decimal"

// Party identifies one end of a shipment (pickup or delivery).
type Party struct {
	Name     string
	Phone    string
	Email    string
	Address1 string
	Address2 string
	Postcode string
	City     string
	State    string
	Country  string
}

// ShipmentRequest carries everything EPSubmitOrderBulk needs for one parcel.
type ShipmentRequest struct {
	ReferenceID string
	ServiceID   string
	PickupDate  string
	WeightKg    decimal.Decimal
	Content     string
	ParcelValue decimal.Decimal
	Sender      Party
	Receiver    Party
}

// Shipment is the aggregator's record of a created (not yet paid) order.
type Shipment struct {
	OrderNumber string
	CourierName string
	Price       decimal.Decimal
}

// PaymentResult holds the airway bill issued by EPPayOrderBulk.
type PaymentResult struct {
	OrderNumber    string
	AWBNumber      string
	AWBLink        string
	TrackingURL    string
	TrackingNumber string
}

// Rate is one courier quote from EPRateCheckingBulk.
type Rate struct {
	ServiceID     string
	CourierName   string
	ServiceName   string
	Price         decimal.Decimal
	EstimatedDays string
}

// RateRequest queries available courier services between two postcodes.
type RateRequest struct {
	PickupPostcode   string
	PickupState      string
	DeliveryPostcode string
	DeliveryState    string
	WeightKg         decimal.Decimal
}

type apiEnvelope struct {
	APIStatus   string `json:"api_status"`
	ErrorCode   string `json:"error_code"`
	ErrorRemark string `json:"error_remark"`
}

type submitResult struct {
	Status      string `json:"status"`
	Remarks     string `json:"remarks"`
	OrderNumber string `json:"order_number"`
	CourierName string `json:"courier"`
	Price       string `json:"price"`
}

type payParcel struct {
	ParcelNumber string `json:"parcelno"`
	AWB          string `json:"awb"`
	AWBLink      string `json:"awb_id_link"`
	TrackingURL  string `json:"tracking_url"`
}

type payResult struct {
	Status      string      `json:"status"`
	Remarks     string      `json:"remarks"`
	OrderNumber string      `json:"orderno"`
	Parcels     []payParcel `json:"parcel"`
}

type rateService struct {
	ServiceID    string `json:"service_id"`
	CourierName  string `json:"courier_name"`
	ServiceName  string `json:"service_name"`
	Price        string `json:"price"`
	DeliveryDays string `json:"delivery"`
}

type rateResult struct {
	Status  string        `json:"status"`
	Remarks string        `json:"remarks"`
	Rates   []rateService `json:"rates"`
}
