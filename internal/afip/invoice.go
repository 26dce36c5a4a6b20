package afip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// Voucher defaults used for counter sales.
const (
	InvoiceTypeFacturaC  = 11
	ConceptProducts      = 1
	DocTypeFinalConsumer = 99
	CurrencyPesos        = "PES"
	DefaultPointOfSale   = 1
)

const dateLayout = "20060102"

// argentina has no DST; AFIP dates are local.
var argentina = time.FixedZone("ART", -3*60*60)

// InvoiceRequest describes one voucher to authorize.
type InvoiceRequest struct {
	PointOfSale int
	InvoiceType int
	Concept     int
	DocType     int
	DocNumber   int64
	Total       float64
}

// Invoice is an authorized voucher.
type Invoice struct {
	CAE           string
	CAEExpiration time.Time
	Number        int64
	PointOfSale   int
	Type          int
	IssuedAt      time.Time
}

type lastVoucherParams struct {
	PtoVta   int `json:"PtoVta"`
	CbteTipo int `json:"CbteTipo"`
}

type lastVoucherResponse struct {
	CbteNro int64 `json:"CbteNro"`
	Result  *struct {
		CbteNro int64 `json:"CbteNro"`
	} `json:"FECompUltimoAutorizadoResult"`
}

type caeParams struct {
	FeCAEReq caeRequest `json:"FeCAEReq"`
}

type caeRequest struct {
	FeCabReq caeHeader `json:"FeCabReq"`
	FeDetReq struct {
		FECAEDetRequest []caeDetail `json:"FECAEDetRequest"`
	} `json:"FeDetReq"`
}

type caeHeader struct {
	CantReg  int `json:"CantReg"`
	PtoVta   int `json:"PtoVta"`
	CbteTipo int `json:"CbteTipo"`
}

type caeDetail struct {
	Concepto   int     `json:"Concepto"`
	DocTipo    int     `json:"DocTipo"`
	DocNro     int64   `json:"DocNro"`
	CbteDesde  int64   `json:"CbteDesde"`
	CbteHasta  int64   `json:"CbteHasta"`
	CbteFch    string  `json:"CbteFch"`
	ImpTotal   float64 `json:"ImpTotal"`
	ImpTotConc float64 `json:"ImpTotConc"`
	ImpNeto    float64 `json:"ImpNeto"`
	ImpOpEx    float64 `json:"ImpOpEx"`
	ImpTrib    float64 `json:"ImpTrib"`
	ImpIVA     float64 `json:"ImpIVA"`
	MonID      string  `json:"MonId"`
	MonCotiz   float64 `json:"MonCotiz"`
}

type caeResponse struct {
	caeResult
	Result *caeResult `json:"FECAESolicitarResult"`
}

type caeResult struct {
	FeDetResp *struct {
		FECAEDetResponse oneOrMany[caeDetailResponse] `json:"FECAEDetResponse"`
	} `json:"FeDetResp"`
	Errors *struct {
		Err oneOrMany[message] `json:"Err"`
	} `json:"Errors"`
}

type caeDetailResponse struct {
	Resultado     string `json:"Resultado"`
	CAE           string `json:"CAE"`
	CAEFchVto     string `json:"CAEFchVto"`
	Observaciones *struct {
		Obs oneOrMany[message] `json:"Obs"`
	} `json:"Observaciones"`
}

type message struct {
	Code int    `json:"Code"`
	Msg  string `json:"Msg"`
}

// oneOrMany accepts both a JSON array and a single object, as the SOAP to
// JSON bridge collapses one-element lists.
type oneOrMany[T any] []T

func (o *oneOrMany[T]) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		var many []T
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		*o = many
		return nil
	}
	var one T
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*o = []T{one}
	return nil
}

// LastVoucher returns the last authorized voucher number for a point of
// sale and voucher type.
func (c *Client) LastVoucher(ctx context.Context, creds Credentials, ticket Ticket, pointOfSale, invoiceType int) (int64, error) {
	var resp lastVoucherResponse
	if err := c.Call(ctx, creds, ticket, "FECompUltimoAutorizado", lastVoucherParams{
		PtoVta:   pointOfSale,
		CbteTipo: invoiceType,
	}, &resp); err != nil {
		return 0, err
	}
	if resp.Result != nil && resp.CbteNro == 0 {
		return resp.Result.CbteNro, nil
	}
	return resp.CbteNro, nil
}

// IssueInvoice runs the full authorization sequence: ticket, last voucher,
// CAE request for last+1. It is attempted once.
func (c *Client) IssueInvoice(ctx context.Context, creds Credentials, req InvoiceRequest) (Invoice, error) {
	applyDefaults(&req)

	ticket, err := c.Authenticate(ctx, creds)
	if err != nil {
		return Invoice{}, err
	}
	last, err := c.LastVoucher(ctx, creds, ticket, req.PointOfSale, req.InvoiceType)
	if err != nil {
		return Invoice{}, err
	}
	next := last + 1
	now := c.now().In(argentina)
	amount := math.Round(req.Total*100) / 100

	var params caeParams
	params.FeCAEReq.FeCabReq = caeHeader{CantReg: 1, PtoVta: req.PointOfSale, CbteTipo: req.InvoiceType}
	params.FeCAEReq.FeDetReq.FECAEDetRequest = []caeDetail{{
		Concepto:  req.Concept,
		DocTipo:   req.DocType,
		DocNro:    req.DocNumber,
		CbteDesde: next,
		CbteHasta: next,
		CbteFch:   now.Format(dateLayout),
		ImpTotal:  amount,
		ImpNeto:   amount,
		MonID:     CurrencyPesos,
		MonCotiz:  1,
	}}

	var resp caeResponse
	if err := c.Call(ctx, creds, ticket, "FECAESolicitar", params, &resp); err != nil {
		return Invoice{}, err
	}
	result := resp.caeResult
	if resp.Result != nil {
		result = *resp.Result
	}

	if result.FeDetResp == nil || len(result.FeDetResp.FECAEDetResponse) == 0 {
		if result.Errors != nil && len(result.Errors.Err) > 0 {
			first := result.Errors.Err[0]
			return Invoice{}, &RejectionError{Code: first.Code, Message: first.Msg}
		}
		return Invoice{}, errors.New("afip: FECAESolicitar: empty response")
	}
	detail := result.FeDetResp.FECAEDetResponse[0]
	if detail.Resultado == "R" {
		rejection := &RejectionError{Message: "unknown error"}
		if detail.Observaciones != nil && len(detail.Observaciones.Obs) > 0 {
			rejection.Code = detail.Observaciones.Obs[0].Code
			rejection.Message = detail.Observaciones.Obs[0].Msg
		}
		return Invoice{}, rejection
	}
	if detail.CAE == "" {
		return Invoice{}, errors.New("afip: FECAESolicitar: approved without CAE")
	}

	invoice := Invoice{
		CAE:         detail.CAE,
		Number:      next,
		PointOfSale: req.PointOfSale,
		Type:        req.InvoiceType,
		IssuedAt:    now,
	}
	if detail.CAEFchVto != "" {
		expiry, err := time.ParseInLocation(dateLayout, detail.CAEFchVto, argentina)
		if err != nil {
			return Invoice{}, fmt.Errorf("afip: parse CAE expiration %q: %w", detail.CAEFchVto, err)
		}
		invoice.CAEExpiration = expiry
	}
	return invoice, nil
}

func applyDefaults(req *InvoiceRequest) {
	if req.PointOfSale <= 0 {
		req.PointOfSale = DefaultPointOfSale
	}
	if req.InvoiceType == 0 {
		req.InvoiceType = InvoiceTypeFacturaC
	}
	if req.Concept == 0 {
		req.Concept = ConceptProducts
	}
	if req.DocType == 0 {
		req.DocType = DocTypeFinalConsumer
	}
}
