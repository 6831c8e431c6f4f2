package api

import "github.com/de-tools/spend-atlas/pkg/models/domain"

// MetaValue marshals as a bare JSON number or string.
type MetaValue = domain.MetaValue
