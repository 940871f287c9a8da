package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmorozov/docling-orchestrator/internal/domain"
)

func TestCalcTimeout(t *testing.T) {
	cases := []struct {
		pageCount int
		tier      domain.Tier
		want      int
	}{
		{0, domain.TierStandard, 60},
		{10, domain.TierStandard, 160},
		{10, domain.TierLightweight, 80},
		{10, domain.TierAdvanced, 320},
		{10, domain.Tier("unknown"), 160},
	}

	for _, c := range cases {
		got := calcTimeout(c.pageCount, c.tier, 60, 10)
		assert.Equal(t, c.want, got, "pageCount=%d tier=%s", c.pageCount, c.tier)
	}
}
