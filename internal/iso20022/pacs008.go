package iso20022

import (
	"encoding/xml"
	"time"

	"payorch.backend/internal/domain/entities"
)

// Pacs008Document is a FIToFICstmrCdtTrfV08, the interbank leg of a credit
// transfer submitted to a clearing rail. Field layout follows the
// GrpHdr/CdtTrfTxInf shape used by Bankserv/RTC-style ACH rails.
type Pacs008Document struct {
	XMLName            xml.Name          `xml:"Document"`
	Xmlns              string            `xml:"xmlns,attr"`
	XmlnsXsi           string            `xml:"xmlns:xsi,attr"`
	FIToFICstmrCdtTrf  Pacs008Body       `xml:"FIToFICstmrCdtTrf"`
}

type Pacs008Body struct {
	GrpHdr      Pacs008GroupHeader `xml:"GrpHdr"`
	CdtTrfTxInf []Pacs008TxInfo    `xml:"CdtTrfTxInf"`
}

type Pacs008GroupHeader struct {
	MsgId    string           `xml:"MsgId"`
	CreDtTm  time.Time        `xml:"CreDtTm"`
	NbOfTxs  int              `xml:"NbOfTxs"`
	SttlmInf SettlementInfo   `xml:"SttlmInf"`
	InstgAgt AgentID          `xml:"InstgAgt"`
	InstdAgt AgentID          `xml:"InstdAgt"`
}

type SettlementInfo struct {
	SttlmMtd string         `xml:"SttlmMtd"`
	ClrSys   ClearingSystem `xml:"ClrSys"`
}

type ClearingSystem struct {
	Prtry string `xml:"Prtry"`
}

type Pacs008TxInfo struct {
	PmtId           PaymentID `xml:"PmtId"`
	IntrBkSttlmAmt  Amount    `xml:"IntrBkSttlmAmt"`
	IntrBkSttlmDt   string    `xml:"IntrBkSttlmDt"`
	ChrgBr          string    `xml:"ChrgBr"`
	InstgAgt        AgentID   `xml:"InstgAgt"`
	InstdAgt        AgentID   `xml:"InstdAgt"`
	Dbtr            PartyID   `xml:"Dbtr"`
	DbtrAcct        AccountID `xml:"DbtrAcct"`
	DbtrAgt         AgentID   `xml:"DbtrAgt"`
	CdtrAgt         AgentID   `xml:"CdtrAgt"`
	Cdtr            PartyID   `xml:"Cdtr"`
	CdtrAcct        AccountID `xml:"CdtrAcct"`
}

// rail-qualifying proprietary clearing-system codes, used as SttlmInf.ClrSys.Prtry.
const (
	ClrSysBankserv = "ZA-BANKSERV"
	ClrSysRTC      = "ZA-RTC"
)

// NewPacs008 builds the interbank message submitted to a Bankserv/RTC-style
// rail from a canonical Payment, per spec §5.3 ("produce the rail-specific
// ISO 20022 message variant").
func NewPacs008(msgID string, clrSysCode string, p *entities.Payment) *Pacs008Document {
	now := time.Now
	_ = now
	tx := Pacs008TxInfo{
		PmtId: PaymentID{
			InstrId:    p.ID.String(),
			EndToEndId: p.EndToEndID,
			UETR:       string(p.UETR),
		},
		IntrBkSttlmAmt: Amount{Ccy: p.Amount.Currency, Value: p.Amount.String()},
		ChrgBr:         "SLEV",
		DbtrAgt:        AgentID{BICFI: p.Debtor.Agent},
		Dbtr:           PartyID{Nm: p.Debtor.Account},
		DbtrAcct:       AccountID{Id: p.Debtor.Account},
		CdtrAgt:        AgentID{BICFI: p.Creditor.Agent},
		Cdtr:           PartyID{Nm: p.Creditor.Account},
		CdtrAcct:       AccountID{Id: p.Creditor.Account},
	}
	return &Pacs008Document{
		Xmlns:    "urn:iso:std:iso:20022:tech:xsd:pacs.008.001.08",
		XmlnsXsi: "http://www.w3.org/2001/XMLSchema-instance",
		FIToFICstmrCdtTrf: Pacs008Body{
			GrpHdr: Pacs008GroupHeader{
				MsgId:   msgID,
				NbOfTxs: 1,
				SttlmInf: SettlementInfo{
					SttlmMtd: "CLRG",
					ClrSys:   ClearingSystem{Prtry: clrSysCode},
				},
			},
			CdtTrfTxInf: []Pacs008TxInfo{tx},
		},
	}
}

// Pacs002Document is a FIToFIPaymentStatusReportV10, the inbound status
// callback from a clearing rail keyed by UETR.
type Pacs002Document struct {
	XMLName xml.Name     `xml:"Document"`
	FIToFIPmtStsRpt Pacs002Body `xml:"FIToFIPmtStsRpt"`
}

type Pacs002Body struct {
	GrpHdr            Pain002GroupHeader `xml:"GrpHdr"`
	OrgnlGrpInfAndSts OriginalGroupInfo  `xml:"OrgnlGrpInfAndSts"`
	TxInfAndSts       []Pacs002TxInfo    `xml:"TxInfAndSts"`
}

type Pacs002TxInfo struct {
	OrgnlUETR string            `xml:"OrgnlUETR"`
	TxSts     TransactionStatus `xml:"TxSts"`
	StsRsnInf *StatusReasonInfo `xml:"StsRsnInf,omitempty"`
	AccptncDtTm *time.Time      `xml:"AccptncDtTm,omitempty"`
}

// ClearingOutcome normalises a pacs.002 inbound callback into the common
// ClearingOutcome shape the saga's AwaitClearingResult step consumes.
func (d *Pacs002Document) ClearingOutcome() entities.ClearingOutcome {
	if len(d.FIToFIPmtStsRpt.TxInfAndSts) == 0 {
		return entities.ClearingOutcome{Accepted: false, FinalStatus: false}
	}
	tx := d.FIToFIPmtStsRpt.TxInfAndSts[0]
	outcome := entities.ClearingOutcome{RawStatus: string(tx.TxSts)}
	switch tx.TxSts {
	case TxStatusSettled:
		outcome.Accepted = true
		outcome.FinalStatus = true
	case TxStatusAccepted:
		outcome.Accepted = true
		outcome.FinalStatus = false
	case TxStatusRejected:
		outcome.Accepted = false
		outcome.FinalStatus = true
		outcome.ReasonCode = entities.ReasonAdapterReject
		if tx.StsRsnInf != nil {
			outcome.ReasonCode = entities.ReasonCode(tx.StsRsnInf.Rsn.Code)
		}
	default:
		outcome.Accepted = false
		outcome.FinalStatus = false
	}
	return outcome
}

// UETRFromCallback extracts the correlation key from an inbound pacs.002.
func (d *Pacs002Document) UETRFromCallback() entities.UETR {
	if len(d.FIToFIPmtStsRpt.TxInfAndSts) == 0 {
		return ""
	}
	return entities.UETR(d.FIToFIPmtStsRpt.TxInfAndSts[0].OrgnlUETR)
}
