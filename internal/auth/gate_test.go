// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/dose-go/internal/model"
	"github.com/olegiv/dose-go/internal/service"
	"github.com/olegiv/dose-go/internal/store"
	"github.com/olegiv/dose-go/internal/testutil"
)

func TestGate_AllowList(t *testing.T) {
	db := testutil.TestDB(t)
	users := service.NewUserService(db, "owner@example.com", nil)
	ctx := context.Background()

	_, err := users.Add(ctx, "owner@example.com", "Editor@Example.com", "Ed", model.RoleEditor)
	require.NoError(t, err)

	gate := NewGate("owner@example.com", users)

	tests := []struct {
		email    string
		admitted bool
		role     string
	}{
		{"owner@example.com", true, model.RoleAdmin},
		{"OWNER@example.COM", true, model.RoleAdmin},
		{"editor@example.com", true, model.RoleEditor},
		{" EDITOR@EXAMPLE.COM ", true, model.RoleEditor},
		{"stranger@example.com", false, ""},
		{"", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			ok, err := gate.IsAdmitted(ctx, tt.email)
			require.NoError(t, err)
			assert.Equal(t, tt.admitted, ok)

			role, err := gate.RoleOf(ctx, tt.email)
			require.NoError(t, err)
			assert.Equal(t, tt.role, role)
		})
	}
}

func TestGate_IdentifyCarriesName(t *testing.T) {
	db := testutil.TestDB(t)
	users := service.NewUserService(db, "owner@example.com", nil)
	ctx := context.Background()

	_, err := users.Add(ctx, "owner@example.com", "ed@example.com", "Ed Itor", model.RoleAdmin)
	require.NoError(t, err)

	id, ok, err := NewGate("owner@example.com", users).Identify(ctx, "ED@example.com")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Ed Itor", id.Name)
	assert.True(t, id.IsAdmin())
}

func TestGate_RemovedUserIsRejected(t *testing.T) {
	db := testutil.TestDB(t)
	users := service.NewUserService(db, "owner@example.com", nil)
	ctx := context.Background()

	u, err := users.Add(ctx, "owner@example.com", "gone@example.com", "", model.RoleViewer)
	require.NoError(t, err)
	gate := NewGate("owner@example.com", users)

	ok, err := gate.IsAdmitted(ctx, "gone@example.com")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = users.Remove(ctx, "owner@example.com", u.ID)
	require.NoError(t, err)

	ok, err = gate.IsAdmitted(ctx, "gone@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

type failingLookup struct{}

func (failingLookup) Lookup(context.Context, string) (store.AllowedUser, error) {
	return store.AllowedUser{}, errors.New("database is locked")
}

func TestGate_LookupErrorNeverAdmits(t *testing.T) {
	gate := NewGate("owner@example.com", failingLookup{})

	ok, err := gate.IsAdmitted(context.Background(), "someone@example.com")
	assert.Error(t, err)
	assert.False(t, ok)

	ok, err = gate.IsAdmitted(context.Background(), "owner@example.com")
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestGate_NilUsers(t *testing.T) {
	gate := NewGate("owner@example.com", nil)
	ok, err := gate.IsAdmitted(context.Background(), "other@example.com")
	assert.NoError(t, err)
	assert.False(t, ok)
}
