package iso20022

import (
	"encoding/xml"
	"time"

	"payorch.backend/internal/domain/entities"
)

// Camt055Document is a CustomerPaymentCancellationRequestV09. NewCamt055
// builds one, but nothing sends it: POST /payments/{id}/cancel only flags
// the saga for cancellation, and no rail client has a cancel call.
type Camt055Document struct {
	XMLName xml.Name        `xml:"Document"`
	CstmrPmtCxlReq Camt055Body `xml:"CstmrPmtCxlReq"`
}

type Camt055Body struct {
	Assgnmt CancellationAssignment `xml:"Assgnmt"`
	Undrlyg []UnderlyingTransaction `xml:"Undrlyg"`
}

type CancellationAssignment struct {
	Id      string    `xml:"Id"`
	CreDtTm time.Time `xml:"CreDtTm"`
}

type UnderlyingTransaction struct {
	OrgnlUETR     string `xml:"OrgnlUETR"`
	OrgnlEndToEndId string `xml:"OrgnlEndToEndId"`
	CxlRsnInf     string `xml:"CxlRsnInf>Rsn>Cd"`
}

// NewCamt055 builds a cancellation request for the given payment.
func NewCamt055(assignmentID string, p *entities.Payment) *Camt055Document {
	return &Camt055Document{
		CstmrPmtCxlReq: Camt055Body{
			Assgnmt: CancellationAssignment{Id: assignmentID},
			Undrlyg: []UnderlyingTransaction{{
				OrgnlUETR:       string(p.UETR),
				OrgnlEndToEndId: p.EndToEndID,
				CxlRsnInf:       string(entities.ReasonCancelled),
			}},
		},
	}
}

// CancellationStatus is the camt.029 ResolvedCase status code.
type CancellationStatus string

const (
	CancellationStatusAccepted CancellationStatus = "ACCP" // the underlying payment was cancelled
	CancellationStatusRejected CancellationStatus = "RJCR" // cancellation itself was rejected (already settled, etc)
)

// Camt029Document is a ResolutionOfInvestigationV13, the response to a
// camt.055 cancellation request.
type Camt029Document struct {
	XMLName xml.Name    `xml:"Document"`
	RsltnOfInvstgtn Camt029Body `xml:"RsltnOfInvstgtn"`
}

type Camt029Body struct {
	Assgnmt   CancellationAssignment `xml:"Assgnmt"`
	Sts       CancellationResolution `xml:"Sts"`
	OrgnlUETR string                 `xml:"CxlDtls>OrgnlGrpInfAndCxl>OrgnlUETR"`
}

type CancellationResolution struct {
	Cd CancellationStatus `xml:"Cd"`
}

// NewCamt029 builds the cancellation resolution for a payment, reflecting
// whether the cancel actually took effect or arrived too late.
func NewCamt029(assignmentID string, p *entities.Payment, accepted bool) *Camt029Document {
	status := CancellationStatusRejected
	if accepted {
		status = CancellationStatusAccepted
	}
	return &Camt029Document{
		RsltnOfInvstgtn: Camt029Body{
			Assgnmt:   CancellationAssignment{Id: assignmentID},
			Sts:       CancellationResolution{Cd: status},
			OrgnlUETR: string(p.UETR),
		},
	}
}

// Camt054Document is a BankToCustomerDebitCreditNotificationV08, an
// asynchronous settlement notification some rails send independently of the
// pacs.002 status callback. Only the type and its UETR extraction exist: the
// clearing callback handler decodes pacs.002 bodies and does not parse camt.054.
type Camt054Document struct {
	XMLName xml.Name     `xml:"Document"`
	BkToCstmrDbtCdtNtfctn Camt054Body `xml:"BkToCstmrDbtCdtNtfctn"`
}

type Camt054Body struct {
	Ntfctn Camt054Notification `xml:"Ntfctn"`
}

type Camt054Notification struct {
	Id  string             `xml:"Id"`
	Ntry []Camt054Entry     `xml:"Ntry"`
}

type Camt054Entry struct {
	Amt         Amount `xml:"Amt"`
	CdtDbtInd   string `xml:"CdtDbtInd"`
	Sts         string `xml:"Sts>Cd"`
	NtryDtls    []Camt054EntryDetail `xml:"NtryDtls"`
}

type Camt054EntryDetail struct {
	OrgnlUETR string `xml:"TxDtls>Refs>UETR"`
}

// UETRFromNotification extracts the correlation key from a camt.054, or
// empty if the message carries no entries.
func (d *Camt054Document) UETRFromNotification() entities.UETR {
	for _, entry := range d.BkToCstmrDbtCdtNtfctn.Ntfctn.Ntry {
		for _, detail := range entry.NtryDtls {
			if detail.OrgnlUETR != "" {
				return entities.UETR(detail.OrgnlUETR)
			}
		}
	}
	return ""
}
