package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/application/verification"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestApp(t *testing.T) *app {
	t.Helper()
	cfg := config.Default()
	cfg.Database.Path = ":memory:"
	cfg.Log.GormLevel = "silent"
	a, err := newApp(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.close(context.Background()) })
	return a
}

func TestRun_SeedAndVerify(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	var out bytes.Buffer

	require.Equal(t, 0, run(ctx, a, []string{"automigrate"}, "text", &out))
	require.Equal(t, 0, run(ctx, a, []string{"seed-accounts"}, "text", &out))
	require.Equal(t, 0, run(ctx, a, []string{"seed-accounts"}, "text", &out))

	out.Reset()
	assert.Equal(t, 0, run(ctx, a, []string{"verify"}, "json", &out))

	var report verification.Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.True(t, report.Ok())
	assert.Len(t, report.Results, len(verification.CheckNames()))
}

func TestRun_Repair(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	var out bytes.Buffer

	require.Equal(t, 0, run(ctx, a, []string{"automigrate"}, "text", &out))
	require.Equal(t, 0, run(ctx, a, []string{"seed-accounts"}, "text", &out))

	out.Reset()
	assert.Equal(t, 0, run(ctx, a, []string{"repair", "all"}, "text", &out))
	assert.Contains(t, out.String(), "Nothing to repair")

	out.Reset()
	assert.Equal(t, 0, run(ctx, a, []string{"repair", verification.CheckMovementCosts}, "json", &out))
	assert.JSONEq(t, "[]", out.String())

	assert.Equal(t, 1, run(ctx, a, []string{"repair", "no_such_check"}, "text", &out))
	assert.Equal(t, 1, run(ctx, a, []string{"repair"}, "text", &out))
}

func TestRun_UnknownCommand(t *testing.T) {
	a := newTestApp(t)
	assert.Equal(t, 2, run(context.Background(), a, []string{"drop"}, "text", &bytes.Buffer{}))
}

func TestPrintReport_Text(t *testing.T) {
	report := &verification.Report{
		CheckedAt:  time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC),
		OkCount:    1,
		ErrorCount: 1,
		Results: []*verification.CheckResult{
			{Name: verification.CheckMovementCosts, Status: verification.StatusOk},
			{Name: verification.CheckWithdrawalAccounts, Status: verification.StatusError, Issues: []string{"entry W-1 debits 3000"}},
		},
	}

	var out bytes.Buffer
	require.NoError(t, printReport(&out, "text", report))
	assert.Contains(t, out.String(), "1 ok, 1 with issues")
	assert.Contains(t, out.String(), "[error] withdrawal_accounts")
	assert.Contains(t, out.String(), "- entry W-1 debits 3000")
}
