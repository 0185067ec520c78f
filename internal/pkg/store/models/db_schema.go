package models

import (
	"strconv"

	"github.com/Nevi32/wofuo1/internal/pkg/consts"
	"github.com/Nevi32/wofuo1/internal/pkg/utils"
)

// Record is implemented by every row stored in a snapshot collection.
// RecordID returns the record's identity: its id when it has one, otherwise
// the collection's natural key.
type Record interface {
	RecordID() string
}

type User struct {
	Email        string `json:"email" bson:"email" validate:"required,email"`
	Username     string `json:"username,omitempty" bson:"username,omitempty"`
	DisplayName  string `json:"displayName,omitempty" bson:"displayName,omitempty"`
	PasswordHash string `json:"passwordHash,omitempty" bson:"passwordHash,omitempty"`
	CreatedAt    string `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
}

func (u User) RecordID() string { return u.Email }

type Member struct {
	FullName              string  `json:"fullName" bson:"fullName" validate:"required"`
	NationalID            string  `json:"nationalId" bson:"nationalId" validate:"required"`
	PhoneNumber           string  `json:"phoneNumber,omitempty" bson:"phoneNumber,omitempty"`
	DateOfBirth           string  `json:"dateOfBirth,omitempty" bson:"dateOfBirth,omitempty"`
	GroupName             string  `json:"groupName" bson:"groupName"`
	MemberStatus          string  `json:"memberStatus,omitempty" bson:"memberStatus,omitempty"`
	County                string  `json:"county,omitempty" bson:"county,omitempty"`
	SubCounty             string  `json:"subCounty,omitempty" bson:"subCounty,omitempty"`
	Location              string  `json:"location,omitempty" bson:"location,omitempty"`
	Ward                  string  `json:"ward,omitempty" bson:"ward,omitempty"`
	Village               string  `json:"village,omitempty" bson:"village,omitempty"`
	NextOfKinFullName     string  `json:"nextOfKinFullName,omitempty" bson:"nextOfKinFullName,omitempty"`
	NextOfKinIDNumber     string  `json:"nextOfKinIdNumber,omitempty" bson:"nextOfKinIdNumber,omitempty"`
	NextOfKinPhoneNumber  string  `json:"nextOfKinPhoneNumber,omitempty" bson:"nextOfKinPhoneNumber,omitempty"`
	NextOfKinRelationship string  `json:"nextOfKinRelationship,omitempty" bson:"nextOfKinRelationship,omitempty"`
	RegistrationFee       float64 `json:"registrationFee,omitempty" bson:"registrationFee,omitempty" validate:"gte=0"`
	PassbookFee           float64 `json:"passbookFee,omitempty" bson:"passbookFee,omitempty" validate:"gte=0"`
	NextOfKinFormFee      float64 `json:"nextOfKinFormFee,omitempty" bson:"nextOfKinFormFee,omitempty" validate:"gte=0"`
}

func (m Member) RecordID() string { return m.NationalID }

type Saving struct {
	ID           string  `json:"id,omitempty" bson:"id,omitempty"`
	GroupName    string  `json:"groupName" bson:"groupName"`
	MemberName   string  `json:"memberName" bson:"memberName"`
	SavingAmount float64 `json:"savingAmount" bson:"savingAmount"`
	SavingDate   string  `json:"savingDate" bson:"savingDate"`
}

func (s Saving) RecordID() string {
	if s.ID != "" {
		return s.ID
	}
	return utils.MemberKey(s.GroupName, s.MemberName) + "|" + s.SavingDate
}

// TotalSaving is the single running balance row for a (group, member) pair.
type TotalSaving struct {
	GroupName   string  `json:"groupName" bson:"groupName"`
	MemberName  string  `json:"memberName" bson:"memberName"`
	TotalAmount float64 `json:"totalAmount" bson:"totalAmount"`
}

func (t TotalSaving) RecordID() string { return utils.MemberKey(t.GroupName, t.MemberName) }

type Withdrawal struct {
	ID             string  `json:"id,omitempty" bson:"id,omitempty"`
	GroupName      string  `json:"groupName" bson:"groupName"`
	MemberName     string  `json:"memberName" bson:"memberName"`
	WithdrawAmount float64 `json:"withdrawAmount" bson:"withdrawAmount"`
	CompanyPayout  float64 `json:"companyPayout" bson:"companyPayout"`
	AmountGiven    float64 `json:"amountGiven" bson:"amountGiven"`
	WithdrawDate   string  `json:"withdrawDate" bson:"withdrawDate"`
}

func (w Withdrawal) RecordID() string {
	if w.ID != "" {
		return w.ID
	}
	return utils.MemberKey(w.GroupName, w.MemberName) + "|" + w.WithdrawDate
}

type Guarantor struct {
	Name  string `json:"name" bson:"name"`
	Group string `json:"group" bson:"group"`
}

type Loan struct {
	ID            int64             `json:"id" bson:"id"`
	Type          consts.LoanKind   `json:"type" bson:"type"`
	Name          string            `json:"name" bson:"name"`
	GroupName     string            `json:"groupName" bson:"groupName"`
	MemberName    string            `json:"memberName,omitempty" bson:"memberName,omitempty"`
	Amount        float64           `json:"amount" bson:"amount"`
	Term          float64           `json:"term" bson:"term"`
	Interest      float64           `json:"interest" bson:"interest"`
	AmountToRepay float64           `json:"amountToRepay" bson:"amountToRepay"`
	Status        consts.LoanStatus `json:"status" bson:"status"`
	CompanyPayout float64           `json:"companyPayout,omitempty" bson:"companyPayout,omitempty"`
	Guarantors    []Guarantor       `json:"guarantors,omitempty" bson:"guarantors,omitempty"`
	LoanFormFee   float64           `json:"loanFormFee,omitempty" bson:"loanFormFee,omitempty"`
	DateIssued    string            `json:"dateIssued" bson:"dateIssued"`
	DateToRepay   string            `json:"dateToRepay" bson:"dateToRepay"`
}

func (l Loan) RecordID() string { return strconv.FormatInt(l.ID, 10) }

type Defaulter struct {
	ID          int64  `json:"id" bson:"id"`
	LoanID      int64  `json:"loanId" bson:"loanId"`
	GroupName   string `json:"groupName,omitempty" bson:"groupName,omitempty"`
	Description string `json:"description" bson:"description"`
	Date        string `json:"date" bson:"date"`
}

func (d Defaulter) RecordID() string { return strconv.FormatInt(d.ID, 10) }

type ContinuingPayment struct {
	ID        int64   `json:"id" bson:"id"`
	LoanID    int64   `json:"loanId" bson:"loanId"`
	GroupName string  `json:"groupName,omitempty" bson:"groupName,omitempty"`
	Amount    float64 `json:"amount" bson:"amount"`
	Date      string  `json:"date" bson:"date"`
}

func (p ContinuingPayment) RecordID() string { return strconv.FormatInt(p.ID, 10) }

type VisitMemberRow struct {
	MemberName             string  `json:"memberName" bson:"memberName"`
	TotalLoanGiven         float64 `json:"totalLoanGiven" bson:"totalLoanGiven"`
	LoanBF                 float64 `json:"loanBF" bson:"loanBF"`
	SharesBF               float64 `json:"sharesBF" bson:"sharesBF"`
	TotalRepaid            float64 `json:"totalRepaid" bson:"totalRepaid"`
	Principal              float64 `json:"principal" bson:"principal"`
	LoanInterest           float64 `json:"loanInterest" bson:"loanInterest"`
	SharesSavingsThisMonth float64 `json:"sharesSavingsThisMonth" bson:"sharesSavingsThisMonth"`
	Ins                    float64 `json:"ins" bson:"ins"`
	SharesSavingsCF        float64 `json:"sharesSavingsCF" bson:"sharesSavingsCF"`
	LoanCF                 float64 `json:"loanCF" bson:"loanCF"`
	Status                 string  `json:"status" bson:"status"`
}

type Visit struct {
	ID            string           `json:"id,omitempty" bson:"id,omitempty"`
	GroupName     string           `json:"groupName" bson:"groupName"`
	VisitDate     string           `json:"visitDate" bson:"visitDate"`
	VisitTime     string           `json:"visitTime" bson:"visitTime"`
	NextVisitDate string           `json:"nextVisitDate" bson:"nextVisitDate"`
	Members       []VisitMemberRow `json:"members" bson:"members"`
}

func (v Visit) RecordID() string {
	if v.ID != "" {
		return v.ID
	}
	return utils.NormalizeName(v.GroupName) + "|" + v.VisitDate
}
