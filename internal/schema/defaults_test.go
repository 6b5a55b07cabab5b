package schema

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SRG1996AP/productivity-tracker/internal/domain"
)

func TestMatchTemplateKey(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Operations Leaders", "operations_leaders"},
		{"RTA", "rta"},
		{"Real Time Analyst Team", "rta"},
		{"Training", "training"},
		{"QA", "qa"},
		{"Quality Assurance", "qa"},
		{"Finance", "finance"},
		{"TA", "ta"},
		{"Talent Acquisition", "ta"},
		{"HR", "hr"},
		{"Human Resources", "hr"},
		{"IT", "it"},
		{"IT - Daily Tracking", "it"},
		{"Information Technology", "it"},
		{"Management", ""},
		{"", ""},
		{"Unrelated Team", ""},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, MatchTemplateKey(tc.name), "unit name %q", tc.name)
	}
}

func TestResolveDefaultSchemaFieldShapes(t *testing.T) {
	fields := ResolveDefaultSchema("IT")
	require.NotEmpty(t, fields)
	require.Equal(t, "entry_no", fields[0].Name)

	var priority *TemplateField
	for i := range fields {
		if fields[i].Name == "priority" {
			priority = &fields[i]
		}
	}
	require.NotNil(t, priority)
	require.Equal(t, domain.FieldSelect, priority.Type)
	require.Equal(t, DefaultPriorityChoices, priority.Choices)

	require.Nil(t, ResolveDefaultSchema("Management"))
}

func TestApplyDefaultsIsIdempotent(t *testing.T) {
	repo := &stubFieldRepo{}
	reg := NewRegistry(repo)
	ctx := context.Background()
	unit := domain.Unit{ID: 4, Name: "Finance"}

	created, err := reg.ApplyDefaults(ctx, unit)
	require.NoError(t, err)
	require.Equal(t, len(defaultTemplates["finance"]), created)

	// Second run must not duplicate anything.
	created, err = reg.ApplyDefaults(ctx, unit)
	require.NoError(t, err)
	require.Zero(t, created)

	fields, err := reg.ListFields(ctx, unit.ID)
	require.NoError(t, err)
	require.Len(t, fields, len(defaultTemplates["finance"]))
	for i, f := range fields {
		require.Equal(t, i+1, f.Order)
		require.False(t, f.Required)
	}
}

func TestApplyDefaultsSkipsUnmatchedUnits(t *testing.T) {
	reg := NewRegistry(&stubFieldRepo{})

	created, err := reg.ApplyDefaults(context.Background(), domain.Unit{ID: 1, Name: "Management"})
	require.NoError(t, err)
	require.Zero(t, created)
}
