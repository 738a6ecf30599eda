package tariff

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const standardProfileYAML = `profile: standard
periods:
  - from: "2024-01-01"
    to: "2025-01-01"
    calculator: wase_wind_2024
  - from: "2025-01-01"
    to: "2026-01-01"
    calculator: wase_wind_2025
`

func TestLoadProfiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "standard.yaml"), []byte(standardProfileYAML), 0o644))

	profiles, err := LoadProfiles(dir, Deps{Market: &fakeMarket{}}, time.UTC)
	require.NoError(t, err)
	require.Len(t, profiles, 1)

	registry, ok := profiles["standard"]
	require.True(t, ok)

	spans, err := registry.Resolve(day(2024, 6, 1), day(2024, 6, 2))
	require.NoError(t, err)
	require.Len(t, spans, 1)
	require.Equal(t, "wase_wind_2024", spans[0].Calculator.Name())
}

func TestLoadProfiles_UnknownCalculator(t *testing.T) {
	dir := t.TempDir()
	content := `profile: standard
periods:
  - from: "2024-01-01"
    to: "2025-01-01"
    calculator: no_such_tariff
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "standard.yaml"), []byte(content), 0o644))

	_, err := LoadProfiles(dir, Deps{Market: &fakeMarket{}}, time.UTC)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no_such_tariff")
}

func TestLoadProfiles_DuplicateProfile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(standardProfileYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte(standardProfileYAML), 0o644))

	_, err := LoadProfiles(dir, Deps{Market: &fakeMarket{}}, time.UTC)
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate")
}

func TestLoadProfiles_ParsesDatesInLocation(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Brussels")
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "standard.yaml"), []byte(standardProfileYAML), 0o644))

	profiles, err := LoadProfiles(dir, Deps{Market: &fakeMarket{}}, loc)
	require.NoError(t, err)

	// Midnight Brussels on 2024-01-01 is covered; the hour before it is not.
	registry := profiles["standard"]
	_, err = registry.Resolve(
		time.Date(2024, 1, 1, 0, 0, 0, 0, loc),
		time.Date(2024, 1, 1, 1, 0, 0, 0, loc),
	)
	require.NoError(t, err)

	_, err = registry.Resolve(
		time.Date(2023, 12, 31, 23, 0, 0, 0, loc),
		time.Date(2024, 1, 1, 0, 0, 0, 0, loc),
	)
	require.ErrorIs(t, err, ErrNoTariff)
}

func TestValidCalculator(t *testing.T) {
	require.True(t, ValidCalculator("wase_wind_2024"))
	require.True(t, ValidCalculator("wase_wind_2025"))
	require.False(t, ValidCalculator("wase_wind_1999"))
}
