package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Category string

const (
	CategoryInfrastructure  Category = "Infrastructure"
	CategoryAITokens        Category = "AI Tokens / APIs"
	CategoryHostingDevOps   Category = "Hosting & DevOps"
	CategoryThirdPartyTools Category = "Third-Party Tools"
)

// Categories returns the closed category set in display order.
func Categories() []Category {
	return []Category{
		CategoryInfrastructure,
		CategoryAITokens,
		CategoryHostingDevOps,
		CategoryThirdPartyTools,
	}
}

func (c Category) Valid() bool {
	switch c {
	case CategoryInfrastructure, CategoryAITokens, CategoryHostingDevOps, CategoryThirdPartyTools:
		return true
	}
	return false
}

// ParseCategory matches name against the closed set, ignoring case.
func ParseCategory(name string) (Category, bool) {
	for _, c := range Categories() {
		if strings.EqualFold(string(c), strings.TrimSpace(name)) {
			return c, true
		}
	}
	return Category(name), false
}

type PricingModel string

const (
	PricingUsage  PricingModel = "usage"
	PricingSeat   PricingModel = "seat"
	PricingTiered PricingModel = "tiered"
	PricingFlat   PricingModel = "flat"
)

func (p PricingModel) Valid() bool {
	switch p {
	case PricingUsage, PricingSeat, PricingTiered, PricingFlat:
		return true
	}
	return false
}

// MetaValue holds either a number or a string.
type MetaValue struct {
	num   float64
	str   string
	isNum bool
}

func NumberValue(v float64) MetaValue {
	return MetaValue{num: v, isNum: true}
}

func StringValue(s string) MetaValue {
	return MetaValue{str: s}
}

func (v MetaValue) IsNumber() bool {
	return v.isNum
}

// Float returns the numeric value. Strings that parse as numbers are accepted.
func (v MetaValue) Float() (float64, bool) {
	if v.isNum {
		return v.num, true
	}
	f, err := strconv.ParseFloat(v.str, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func (v MetaValue) String() string {
	if v.isNum {
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	}
	return v.str
}

func (v MetaValue) MarshalJSON() ([]byte, error) {
	if v.isNum {
		return json.Marshal(v.num)
	}
	return json.Marshal(v.str)
}

func (v *MetaValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case float64:
		*v = NumberValue(t)
	case string:
		*v = StringValue(t)
	default:
		return fmt.Errorf("meta value must be a number or a string, got %s", data)
	}
	return nil
}

// Meta carries auxiliary per-event quantities such as tokens or seats.
type Meta map[string]MetaValue

type ExpenseEvent struct {
	ID           string
	Date         time.Time // keeps the source offset, calendar day = Date.Format(DayLayout)
	Service      string    // AWS EC2
	AmountUSD    float64
	Category     Category
	PricingModel PricingModel
	Meta         Meta
}

// DayLayout is the calendar-day key used for daily bucketing.
const DayLayout = "2006-01-02"

func (e ExpenseEvent) Day() string {
	return e.Date.Format(DayLayout)
}

type DailyTotal struct {
	Date      string // 2025-06-13
	AmountUSD float64
}

type CategoryTotal struct {
	Category  Category
	AmountUSD float64
}

type ServiceTotal struct {
	Service   string
	AmountUSD float64
}
