package models

import (
	"time"
)

// Location is an administrative address shared by landholder homes and parcels.
// Empty strings mean the value was never supplied.
type Location struct {
	Village     string `json:"village,omitempty" yaml:"village,omitempty"`
	VillageNo   string `json:"villageNo,omitempty" yaml:"villageNo,omitempty"`
	SubDistrict string `json:"subDistrict,omitempty" yaml:"subDistrict,omitempty"`
	District    string `json:"district,omitempty" yaml:"district,omitempty"`
	Province    string `json:"province,omitempty" yaml:"province,omitempty"`
}

// Merge coalesces incoming into l: every non-empty incoming field wins.
func (l Location) Merge(incoming Location) Location {
	return Location{
		Village:     Coalesce(incoming.Village, l.Village),
		VillageNo:   Coalesce(incoming.VillageNo, l.VillageNo),
		SubDistrict: Coalesce(incoming.SubDistrict, l.SubDistrict),
		District:    Coalesce(incoming.District, l.District),
		Province:    Coalesce(incoming.Province, l.Province),
	}
}

// Landholder is a person holding one or more parcels.
// Code is a validated 13-digit identity code, a TEMP_ placeholder, or a rejected code kept verbatim.
type Landholder struct {
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Code         string    `json:"code"`
	Honorific    string    `json:"honorific,omitempty"`
	GivenName    string    `json:"givenName"`
	FamilyName   string    `json:"familyName"`
	HouseAddress string    `json:"houseAddress,omitempty"`
	Home         Location  `json:"home"`
	ID           int64     `json:"id"`
}

// Merge applies the coalesce rule to every mutable field and returns the result.
// Identity fields (ID, Code, CreatedAt) are kept from l.
func (l Landholder) Merge(incoming Landholder) Landholder {
	merged := l
	merged.Honorific = Coalesce(incoming.Honorific, l.Honorific)
	merged.GivenName = Coalesce(incoming.GivenName, l.GivenName)
	merged.FamilyName = Coalesce(incoming.FamilyName, l.FamilyName)
	merged.HouseAddress = Coalesce(incoming.HouseAddress, l.HouseAddress)
	merged.Home = l.Home.Merge(incoming.Home)
	return merged
}

// Coalesce returns incoming unless it is empty.
func Coalesce(incoming, existing string) string {
	if incoming != "" {
		return incoming
	}
	return existing
}

// CoalescePtr returns incoming unless it is nil.
func CoalescePtr[T any](incoming, existing *T) *T {
	if incoming != nil {
		return incoming
	}
	return existing
}
