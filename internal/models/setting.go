// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Setting sources accepted by SettingsFilter.Sources.
const (
	SourceManufacturer = "manufacturer"
	SourceCommunity    = "community"
)

// Sort orders accepted by SettingsFilter.Sort.
const (
	SortDrivers = "drivers" // most liked first
	SortNewest  = "newest"
	SortOldest  = "oldest"
)

// SettingValues maps a setting field name to its value.
// It scans from the JSON object produced by json_group_object.
type SettingValues map[string]float64

// Scan implements sql.Scanner.
func (s *SettingValues) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*s = SettingValues{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported setting values type %T", src)
	}

	values := SettingValues{}
	if err := json.Unmarshal(raw, &values); err != nil {
		return err
	}
	*s = values
	return nil
}

// Value implements driver.Valuer.
func (s SettingValues) Value() (driver.Value, error) {
	if s == nil {
		return "{}", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Setting is one FFB preset as presented by the listing endpoint.
type Setting struct { //nolint:govet // fieldalignment: readability over optimization
	ID                     int64         `db:"id" json:"id"`
	Car                    string        `db:"car" json:"car"`
	Discipline             string        `db:"discipline" json:"discipline"`
	IsManufacturerProvided bool          `db:"is_manufacturer_provided" json:"is_manufacturer_provided"`
	Likes                  int64         `db:"likes" json:"likes"`
	Brand                  string        `db:"brand" json:"brand"`
	Model                  string        `db:"model" json:"model"`
	Settings               SettingValues `db:"settings" json:"settings"`
}

// FilterOptions lists the distinct values the catalog can be filtered by.
type FilterOptions struct {
	Manufacturers []string `json:"manufacturers"`
	Wheelbases    []string `json:"wheelbases"`
	Cars          []string `json:"cars"`
	Disciplines   []string `json:"disciplines"`
}

// Empty reports whether the catalog holds no options at all.
func (f *FilterOptions) Empty() bool {
	return len(f.Manufacturers) == 0 && len(f.Wheelbases) == 0 &&
		len(f.Cars) == 0 && len(f.Disciplines) == 0
}

// SettingsFilter narrows and orders the settings listing.
// Empty slices do not filter.
type SettingsFilter struct {
	Brands      []string `query:"brand"`
	Models      []string `query:"model"`
	Disciplines []string `query:"discipline"`
	Sources     []string `query:"source" validate:"dive,oneof=manufacturer community"`
	Sort        string   `query:"sort" validate:"omitempty,oneof=drivers newest oldest"`
}

// NewSetting is a preset submitted by a user or loaded by the importer.
type NewSetting struct { //nolint:govet // fieldalignment: readability over optimization
	Brand                  string        `json:"brand" validate:"required,max=100"`
	Model                  string        `json:"model" validate:"required,max=100"`
	Car                    string        `json:"car" validate:"required,max=200"`
	Discipline             string        `json:"discipline" validate:"required,max=100"`
	IsManufacturerProvided bool          `json:"is_manufacturer_provided"`
	Likes                  int64         `json:"likes" validate:"gte=0"`
	Settings               SettingValues `json:"settings" validate:"required,min=1,dive,keys,required,max=64,endkeys,gte=0,lte=100"`
	SubmittedBy            string        `json:"-"`
}

// DisplayName derives a field label by upper-casing the first letter.
func DisplayName(fieldName string) string {
	r, size := utf8.DecodeRuneInString(fieldName)
	if r == utf8.RuneError {
		return fieldName
	}
	return string(unicode.ToUpper(r)) + fieldName[size:]
}

// NormalizeFieldName trims a submitted field name.
func NormalizeFieldName(fieldName string) string {
	return strings.TrimSpace(fieldName)
}
