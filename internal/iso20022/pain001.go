// Package iso20022 implements the subset of ISO 20022 pain/pacs/camt message
// shapes the payment engine ingests and emits, and the conversions between
// them and the canonical entities.Payment. Struct shapes follow the
// FIToFICstmrCdtTrf pacs.008 wire layout used across the clearing rails.
package iso20022

import (
	"encoding/xml"
	"fmt"
	"time"

	"payorch.backend/internal/domain/entities"
)

// Pain001Document is a CustomerCreditTransferInitiationV09 document, the
// inbound message a bank client submits to originate one or more payments.
type Pain001Document struct {
	XMLName   xml.Name           `xml:"Document"`
	Xmlns     string             `xml:"xmlns,attr"`
	CstmrCdtTrfInitn Pain001Body `xml:"CstmrCdtTrfInitn"`
}

type Pain001Body struct {
	GrpHdr      Pain001GroupHeader   `xml:"GrpHdr"`
	PmtInf      []PaymentInstruction `xml:"PmtInf"`
}

type Pain001GroupHeader struct {
	MsgId    string    `xml:"MsgId"`
	CreDtTm  time.Time `xml:"CreDtTm"`
	NbOfTxs  int       `xml:"NbOfTxs"`
	InitgPty PartyID   `xml:"InitgPty"`
}

type PartyID struct {
	Nm string `xml:"Nm"`
}

type PaymentInstruction struct {
	PmtInfId    string              `xml:"PmtInfId"`
	PmtMtd      string              `xml:"PmtMtd"`
	ReqdExctnDt string              `xml:"ReqdExctnDt"`
	Dbtr        PartyID             `xml:"Dbtr"`
	DbtrAcct    AccountID           `xml:"DbtrAcct"`
	DbtrAgt     AgentID             `xml:"DbtrAgt"`
	CdtTrfTxInf []Pain001TxInfo     `xml:"CdtTrfTxInf"`
}

type AccountID struct {
	Id string `xml:"Id>IBAN"`
}

type AgentID struct {
	BICFI string `xml:"FinInstnId>BICFI"`
}

type Pain001TxInfo struct {
	PmtId       PaymentID `xml:"PmtId"`
	Amt         Amount    `xml:"Amt>InstdAmt"`
	CdtrAgt     AgentID   `xml:"CdtrAgt"`
	Cdtr        PartyID   `xml:"Cdtr"`
	CdtrAcct    AccountID `xml:"CdtrAcct"`
	LclInstrm   string    `xml:"PmtTpInf>LclInstrm>Cd,omitempty"`
}

type PaymentID struct {
	InstrId    string `xml:"InstrId"`
	EndToEndId string `xml:"EndToEndId"`
	UETR       string `xml:"UETR"`
}

type Amount struct {
	Ccy   string  `xml:"Ccy,attr"`
	Value string  `xml:",chardata"`
}

// ToPayments converts one pain.001 document into one canonical Payment per
// CdtTrfTxInf entry, per spec §7 ("mapped to canonical payments, one per
// CdtTrfTxInf"). The debtor account/agent are shared from the enclosing
// PmtInf block.
func (d *Pain001Document) ToPayments(tenant entities.TenantContext, paymentType entities.PaymentTypeCode) ([]*entities.Payment, error) {
	var out []*entities.Payment
	for _, pmtInf := range d.CstmrCdtTrfInitn.PmtInf {
		for _, tx := range pmtInf.CdtTrfTxInf {
			money, err := entities.NewMoney(tx.Amt.Value, tx.Amt.Ccy)
			if err != nil {
				return nil, fmt.Errorf("pain.001 tx %s: %w", tx.PmtId.EndToEndId, err)
			}
			uetr := entities.UETR(tx.PmtId.UETR)
			if uetr == "" {
				uetr = entities.NewUETR()
			}
			p := &entities.Payment{
				TenantID:       tenant.TenantID,
				BusinessUnitID: tenant.BusinessUnitID,
				CustomerID:     tenant.CustomerID,
				UETR:           uetr,
				Amount:         money,
				Debtor:         entities.Party{Account: pmtInf.DbtrAcct.Id, Agent: pmtInf.DbtrAgt.BICFI},
				Creditor:       entities.Party{Account: tx.CdtrAcct.Id, Agent: tx.CdtrAgt.BICFI},
				PaymentType:    paymentType,
				LocalInstrument: tx.LclInstrm,
				Status:         entities.PaymentStatusInitiated,
				OriginalMsgID:  d.CstmrCdtTrfInitn.GrpHdr.MsgId,
				EndToEndID:     tx.PmtId.EndToEndId,
			}
			out = append(out, p)
		}
	}
	return out, nil
}

// ToAcceptInputs converts a pain.001 document into one AcceptPaymentInput
// per CdtTrfTxInf entry, for submission through AcceptUsecase.Accept so
// every pain.001 intake gets the same idempotency, tenant-policy and saga
// handling as a JSON POST /payments call.
func (d *Pain001Document) ToAcceptInputs(paymentType entities.PaymentTypeCode) []entities.AcceptPaymentInput {
	var out []entities.AcceptPaymentInput
	msgID := d.CstmrCdtTrfInitn.GrpHdr.MsgId
	for _, pmtInf := range d.CstmrCdtTrfInitn.PmtInf {
		for _, tx := range pmtInf.CdtTrfTxInf {
			out = append(out, entities.AcceptPaymentInput{
				Amount:          tx.Amt.Value,
				Currency:        tx.Amt.Ccy,
				DebtorAccount:   pmtInf.DbtrAcct.Id,
				DebtorAgent:     pmtInf.DbtrAgt.BICFI,
				CreditorAccount: tx.CdtrAcct.Id,
				CreditorAgent:   tx.CdtrAgt.BICFI,
				PaymentType:     paymentType,
				LocalInstrument: tx.LclInstrm,
				OriginalMsgID:   msgID,
				EndToEndID:      tx.PmtId.EndToEndId,
			})
		}
	}
	return out
}
