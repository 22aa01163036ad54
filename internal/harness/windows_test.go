// File: internal/harness/windows_test.go
package harness

import (
	"testing"

	"github.com/chromedp/cdproto/target"
	"github.com/stretchr/testify/assert"
)

func TestDiffTargets(t *testing.T) {
	a, b, c := target.ID("aaa"), target.ID("bbb"), target.ID("ccc")

	t.Run("finds the one new handle", func(t *testing.T) {
		fresh := diffTargets([]target.ID{a}, []target.ID{a, b})
		assert.Equal(t, []target.ID{b}, fresh)
	})

	t.Run("empty when nothing opened", func(t *testing.T) {
		assert.Empty(t, diffTargets([]target.ID{a, b}, []target.ID{a, b}))
	})

	t.Run("ignores handles that closed", func(t *testing.T) {
		// A tab closing while another opens must not confuse the diff.
		fresh := diffTargets([]target.ID{a, b}, []target.ID{a, c})
		assert.Equal(t, []target.ID{c}, fresh)
	})

	t.Run("empty snapshots", func(t *testing.T) {
		assert.Empty(t, diffTargets(nil, nil))
		assert.Equal(t, []target.ID{a}, diffTargets(nil, []target.ID{a}))
	})
}

func TestPageTargetsFiltersBackgroundTargets(t *testing.T) {
	infos := []*target.Info{
		{TargetID: "tab1", Type: "page"},
		{TargetID: "sw", Type: "service_worker"},
		{TargetID: "tab2", Type: "page"},
		{TargetID: "bg", Type: "background_page"},
	}

	ids := pageTargets(infos)
	assert.Equal(t, []target.ID{"tab1", "tab2"}, ids)
}
