// Package seed generates a synthetic expense history for demos and local runs.
package seed

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/de-tools/spend-atlas/pkg/models/domain"
)

const (
	DefaultDays = 90

	minVariance   = 0.7
	varianceRange = 0.6
	growth        = 0.3
)

type Service struct {
	Name         string
	Category     domain.Category
	PricingModel domain.PricingModel
	BaseAmount   float64
}

// DefaultServices is the demo service catalogue.
var DefaultServices = []Service{
	{"AWS EC2", domain.CategoryInfrastructure, domain.PricingUsage, 800},
	{"AWS S3", domain.CategoryInfrastructure, domain.PricingUsage, 200},
	{"OpenAI GPT-4", domain.CategoryAITokens, domain.PricingUsage, 1200},
	{"Anthropic Claude", domain.CategoryAITokens, domain.PricingUsage, 600},
	{"Vercel", domain.CategoryHostingDevOps, domain.PricingSeat, 400},
	{"Datadog", domain.CategoryThirdPartyTools, domain.PricingTiered, 900},
	{"GitHub", domain.CategoryThirdPartyTools, domain.PricingSeat, 300},
	{"Stripe", domain.CategoryThirdPartyTools, domain.PricingUsage, 150},
	{"MongoDB Atlas", domain.CategoryInfrastructure, domain.PricingTiered, 500},
	{"Cloudflare", domain.CategoryHostingDevOps, domain.PricingFlat, 200},
}

type Options struct {
	Days     int
	Services []Service
	Rand     *rand.Rand
}

// NewRand returns a deterministic source for the given seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// Generate emits one event per service per day for the Days days before now.
// Amounts vary between 70% and 130% of the base and grow linearly by up to 30%
// across the window.
func Generate(now time.Time, opts Options) []domain.ExpenseEvent {
	if opts.Days <= 0 {
		opts.Days = DefaultDays
	}
	if opts.Services == nil {
		opts.Services = DefaultServices
	}
	if opts.Rand == nil {
		opts.Rand = NewRand(uint64(now.UnixNano()))
	}

	start := now.UTC().AddDate(0, 0, -opts.Days)
	events := make([]domain.ExpenseEvent, 0, opts.Days*len(opts.Services))
	id := 1
	for day := 0; day < opts.Days; day++ {
		date := start.AddDate(0, 0, day)
		factor := 1 + float64(day)/float64(opts.Days)*growth

		for _, svc := range opts.Services {
			variance := minVariance + opts.Rand.Float64()*varianceRange
			amount := svc.BaseAmount * variance * factor

			events = append(events, domain.ExpenseEvent{
				ID:           fmt.Sprintf("exp-%d", id),
				Date:         date,
				Service:      svc.Name,
				AmountUSD:    math.Round(amount*100) / 100,
				Category:     svc.Category,
				PricingModel: svc.PricingModel,
				Meta:         meta(svc, amount, opts.Rand),
			})
			id++
		}
	}
	return events
}

func meta(svc Service, amount float64, r *rand.Rand) domain.Meta {
	m := domain.Meta{}
	if svc.PricingModel == domain.PricingUsage && svc.Category == domain.CategoryAITokens {
		m["tokens"] = domain.NumberValue(math.Floor(amount * 1000))
	}
	if svc.PricingModel == domain.PricingSeat {
		m["seats"] = domain.NumberValue(float64(5 + r.IntN(3)))
	}
	if len(m) == 0 {
		return nil
	}
	return m
}
