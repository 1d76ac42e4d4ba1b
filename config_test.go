package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"poffin-planner/internal/poffin"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	build, search, err := cfg.engineConfigs()
	require.NoError(t, err)
	require.Equal(t, poffin.DefaultBuildConfig().Sizes, build.Sizes)
	require.Equal(t, poffin.DefaultSearchConfig().Weights, search.Weights)
	require.True(t, search.Parallel)
	require.Nil(t, build.Keep)
}

func TestParseConfigJSONC(t *testing.T) {
	cfg, err := parseConfig([]byte(`{
		// comments and trailing commas are fine
		"cycle": 45,
		"exclude": ["Cheri", "Oran",],
		"strategy": "greedy",
		"weights": {"count": 7},
	}`), DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, 45, cfg.Cycle)
	require.Equal(t, []string{"Cheri", "Oran"}, cfg.Exclude)
	require.Equal(t, StrategyGreedy, cfg.Strategy)
	require.Equal(t, 7, cfg.Weights.Count)

	_, err = parseConfig([]byte(`{"cylce": 45}`), DefaultConfig())
	require.ErrorContains(t, err, "cylce")

	_, err = parseConfig([]byte(`{"cycle": `), DefaultConfig())
	require.ErrorContains(t, err, "invalid JSONC")
}

func TestParseConfigOverDefaults(t *testing.T) {
	base := DefaultConfig()
	base.Sequential = true
	base.NoFoul = true
	require.NotZero(t, base.Weights.Sheen)

	cfg, err := parseConfig([]byte(`{
		"sizes": [2],
		"sequential": false,
		"noFoul": false,
		"weights": {"sheen": 0, "minStat": 0},
		"candidateWeights": {"smoothness": 0},
	}`), base)
	require.NoError(t, err)
	require.Equal(t, []int{2}, cfg.Sizes)
	require.False(t, cfg.Sequential)
	require.False(t, cfg.NoFoul)
	require.Zero(t, cfg.Weights.Sheen)
	require.Zero(t, cfg.Weights.MinStat)
	require.Zero(t, cfg.CandidateWeights.Smoothness)

	// Fields the file leaves out keep the base values.
	require.Equal(t, base.Weights.Stats, cfg.Weights.Stats)
	require.Equal(t, base.Weights.Count, cfg.Weights.Count)
	require.Equal(t, base.CandidateWeights.Level, cfg.CandidateWeights.Level)
	require.Equal(t, base.Choose, cfg.Choose)
	require.Equal(t, base.Cycle, cfg.Cycle)

	// The base is not touched.
	require.Equal(t, DefaultConfig().Sizes, base.Sizes)
	require.True(t, base.Sequential)

	_, search, err := cfg.engineConfigs()
	require.NoError(t, err)
	require.Zero(t, search.Weights.Sheen)
	require.True(t, search.Parallel)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	base := DefaultConfig()

	cfg, loaded, err := loadConfigFile(filepath.Join(dir, "absent.json"), base, false)
	require.NoError(t, err)
	require.False(t, loaded)
	require.Equal(t, base, cfg)

	_, _, err = loadConfigFile(filepath.Join(dir, "absent.json"), base, true)
	require.ErrorIs(t, err, errConfigRead)

	bad := writeFile(t, dir, "bad.json", `{"choose": "three"}`)
	_, _, err = loadConfigFile(bad, base, true)
	require.ErrorIs(t, err, errConfigInvalid)

	good := writeFile(t, dir, "good.json", `{"choose": 2, "noFoul": true}`)
	cfg, loaded, err = loadConfigFile(good, base, true)
	require.NoError(t, err)
	require.True(t, loaded)
	require.Equal(t, 2, cfg.Choose)
	require.True(t, cfg.NoFoul)
	require.Equal(t, base.Top, cfg.Top)
}

func TestEngineConfigsReportsEveryProblem(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cycle = 0
	cfg.Choose = 9
	cfg.Rarity = "median"
	cfg.Scoring = "fancy"
	cfg.Prefer = "umami"
	cfg.Strategy = "random"
	cfg.SearchPool = -1

	_, _, err := cfg.engineConfigs()
	require.ErrorIs(t, err, errConfigInvalid)
	require.ErrorIs(t, err, poffin.ErrCycle)
	require.ErrorIs(t, err, poffin.ErrChoose)
	require.ErrorIs(t, err, poffin.ErrMode)
	require.ErrorIs(t, err, poffin.ErrAxis)
	require.ErrorIs(t, err, errStrategy)
	require.ErrorIs(t, err, errSearchPoolSize)
}

func TestPreferBonusNeedsFlavor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PreferBonus = 1000
	_, _, err := cfg.engineConfigs()
	require.ErrorIs(t, err, errConfigInvalid)
	require.ErrorIs(t, err, poffin.ErrAxis)

	cfg.Prefer = "dry"
	build, _, err := cfg.engineConfigs()
	require.NoError(t, err)
	require.Equal(t, poffin.Dry, build.Weights.Prefer)

	spicy := poffin.Poffin{Kind: poffin.KindSingle, Primary: poffin.Spicy, Level: 40}
	dry := spicy
	dry.Primary = poffin.Dry
	require.Equal(t, build.Weights.Score(spicy)+1000, build.Weights.Score(dry))
}

func TestSearchConfigDefaults(t *testing.T) {
	cfg := DefaultConfig()
	require.Zero(t, cfg.SearchPool, "whole front searched by default")

	cfg.Rarity = "sum"
	_, search, err := cfg.engineConfigs()
	require.NoError(t, err)
	require.Equal(t, poffin.RaritySum, search.Rarity)
}

func TestKeepPredicate(t *testing.T) {
	cfg := DefaultConfig()
	require.Nil(t, cfg.keep())

	cfg.NoFoul = true
	cfg.MinLevel = 5
	keep := cfg.keep()
	require.False(t, keep(poffin.Foul()))
	require.False(t, keep(poffin.Poffin{Kind: poffin.KindSingle, Level: 4}))
	require.True(t, keep(poffin.Poffin{Kind: poffin.KindSingle, Level: 5}))
}

func TestCookNamed(t *testing.T) {
	v, err := cookNamed(DefaultConfig(), []string{"Cheri", "Chesto"})
	require.NoError(t, err)
	require.Equal(t, [5]int{0, 9, 0, 0, 0}, v.Flavors)
	require.Equal(t, 23, v.Smoothness)
	require.Equal(t, "single", v.Kind)
	require.Equal(t, []string{"Cheri", "Chesto"}, v.Berries)

	v, err = cookNamed(DefaultConfig(), []string{"Cheri", "cheri berry"})
	require.NoError(t, err)
	require.Equal(t, "foul", v.Kind)

	_, err = cookNamed(DefaultConfig(), []string{"Cheri", "Chesto", "Pecha", "Rawst", "Aspear"})
	require.ErrorIs(t, err, poffin.ErrRecipeSize)
}
