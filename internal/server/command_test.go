package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/shopdesk/app/api"
	"github.com/shashiranjanraj/shopdesk/app/slices"
)

func TestCommandAction(t *testing.T) {
	sl := slices.NewSlices(&api.Services{}, nil)

	cases := []struct {
		cmd  Command
		want string
	}{
		{Command{Feature: slices.Products, Op: "list"}, "product/LIST_REQUEST"},
		{Command{Feature: slices.Orders, Op: "DETAIL", ID: "o1"}, "order/DETAIL_REQUEST"},
		{Command{Feature: slices.Orders, Op: "STATUS", ID: "o1", Status: "shipped"}, "order/STATUS_REQUEST"},
		{Command{Feature: slices.Reviews, Op: "DELETE", ID: "r1"}, "review/DELETE_REQUEST"},
		{Command{Feature: slices.Statistics, Op: "STATS"}, "stats/STATS_REQUEST"},
		{Command{Feature: slices.AboutUs, Op: "DETAIL"}, "about/DETAIL_REQUEST"},
		{Command{Feature: slices.SessionFeature, Op: "DETAIL"}, "session/DETAIL_REQUEST"},
		{Command{Feature: slices.SessionFeature, Op: "LOGOUT"}, "session/LOGOUT_REQUEST"},
	}
	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			a, err := tc.cmd.Action(sl)
			require.NoError(t, err)
			assert.Equal(t, tc.want, a.Type)
		})
	}
}

func TestCommandActionRejects(t *testing.T) {
	sl := slices.NewSlices(&api.Services{}, nil)

	for _, cmd := range []Command{
		{Feature: "ghost", Op: "LIST"},
		{Feature: slices.Orders, Op: "CREATE"},
		{Feature: slices.Orders, Op: "DETAIL"},
		{Feature: slices.Orders, Op: "STATUS", ID: "o1"},
		{Feature: slices.Categories, Op: "STATUS", ID: "c1", Status: true},
		{Feature: slices.AboutUs, Op: "DELETE"},
		{Feature: slices.SessionFeature, Op: "LOGIN"},
	} {
		_, err := cmd.Action(sl)
		assert.ErrorIs(t, err, ErrBadCommand, "%+v", cmd)
	}
}
