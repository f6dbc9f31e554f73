package model

import "time"

// Role classifies a roster slot. The performance score weighs healing
// differently for supports than for the other two role classes.
type Role string

const (
	RoleTank    Role = "tank"
	RoleDamage  Role = "damage"
	RoleSupport Role = "support"
)

// EventKind is the event-type token carried in column 1 of a log line.
type EventKind string

const (
	EventMeta               EventKind = "meta" // dropped by the decoder
	EventMatchStart         EventKind = "match_start"
	EventMatchEnd           EventKind = "match_end"
	EventRoundStart         EventKind = "round_start"
	EventRoundEnd           EventKind = "round_end"
	EventPlayerStat         EventKind = "player_stat"
	EventKill               EventKind = "kill"
	EventOffensiveAssist    EventKind = "offensive_assist"
	EventDefensiveAssist    EventKind = "defensive_assist"
	EventUltimateCharged    EventKind = "ultimate_charged"
	EventUltimateStart      EventKind = "ultimate_start"
	EventUltimateEnd        EventKind = "ultimate_end"
	EventHeroSpawn          EventKind = "hero_spawn"
	EventHeroSwap           EventKind = "hero_swap"
	EventMercyRez           EventKind = "mercy_rez"
	EventEchoDuplicateStart EventKind = "echo_duplicate_start"
	EventEchoDuplicateEnd   EventKind = "echo_duplicate_end"
)

// KnownEventKinds is the closed set of tokens the decoder accepts.
var KnownEventKinds = map[EventKind]struct{}{
	EventMeta: {}, EventMatchStart: {}, EventMatchEnd: {},
	EventRoundStart: {}, EventRoundEnd: {}, EventPlayerStat: {},
	EventKill: {}, EventOffensiveAssist: {}, EventDefensiveAssist: {},
	EventUltimateCharged: {}, EventUltimateStart: {}, EventUltimateEnd: {},
	EventHeroSpawn: {}, EventHeroSwap: {}, EventMercyRez: {},
	EventEchoDuplicateStart: {}, EventEchoDuplicateEnd: {},
}

// ---- Raw events emitted by the decoder ----

// RawEvent is one decoded log line. Fields holds the event-specific columns
// after the timestamp, in log order.
type RawEvent struct {
	Kind      EventKind
	Timestamp float64 // seconds since match start
	Fields    []string
}

// Field returns the i-th event-specific column, or "" when absent.
func (e RawEvent) Field(i int) string {
	if i < 0 || i >= len(e.Fields) {
		return ""
	}
	return e.Fields[i]
}

// Round is a contiguous block of events between a round-start and round-end
// marker. Number runs 1..N; the whole-match rollup uses the synthetic
// aggregation key 0 and is never represented as a Round value.
type Round struct {
	Number    int
	StartedAt float64
	EndedAt   float64
	Events    []RawEvent
}

// MatchTotalsRound is the synthetic round index meaning "summed across all
// rounds". It is an aggregation key, not a segment.
const MatchTotalsRound = 0

// ---- Catalog entities ----

// User is one known person: a stored display name plus a tag-style
// identifier, with any number of recorded aliases.
type User struct {
	ID          int64
	DisplayName string
	BattleTag   string
}

// Team is a catalog team registered for one tournament.
type Team struct {
	ID           int64
	TournamentID int64
	Name         string
}

// Player is a roster entry for a tournament: a user slotted into a team with
// a role. Substitution entries are created during roster repair and point at
// the roster player they stand in for.
type Player struct {
	ID              int64
	TeamID          int64
	UserID          int64
	Role            Role
	Rank            int
	Division        string
	IsSubstitution  bool
	RelatedPlayerID *int64
}

// Encounter is the scheduled pairing of two teams that a match belongs to.
type Encounter struct {
	ID           int64
	TournamentID int64
	Team1ID      int64
	Team2ID      int64
	HasLogs      bool
}

// ---- Persisted derived entities ----

// Match is the persisted record one engine run creates or refreshes.
type Match struct {
	ID          string // uuid
	EncounterID int64
	MapName     string
	Gamemode    string
	Team1ID     int64
	Team2ID     int64
	Score1      int
	Score2      int
	PlayedAt    time.Time
	LogName     string
}

// Metric names a single measurement stored as a MatchStatistic row.
type Metric string

const (
	// Raw counters extracted from player_stat rows.
	MetricEliminations        Metric = "Eliminations"
	MetricFinalBlows          Metric = "FinalBlows"
	MetricDeaths              Metric = "Deaths"
	MetricAllDamageDealt      Metric = "AllDamageDealt"
	MetricBarrierDamageDealt  Metric = "BarrierDamageDealt"
	MetricHeroDamageDealt     Metric = "HeroDamageDealt"
	MetricHealingDealt        Metric = "HealingDealt"
	MetricHealingReceived     Metric = "HealingReceived"
	MetricSelfHealing         Metric = "SelfHealing"
	MetricDamageTaken         Metric = "DamageTaken"
	MetricDamageBlocked       Metric = "DamageBlocked"
	MetricDefensiveAssists    Metric = "DefensiveAssists"
	MetricOffensiveAssists    Metric = "OffensiveAssists"
	MetricUltimatesEarned     Metric = "UltimatesEarned"
	MetricUltimatesUsed       Metric = "UltimatesUsed"
	MetricMultikillBest       Metric = "MultikillBest"
	MetricMultikills          Metric = "Multikills"
	MetricSoloKills           Metric = "SoloKills"
	MetricObjectiveKills      Metric = "ObjectiveKills"
	MetricEnvironmentalKills  Metric = "EnvironmentalKills"
	MetricEnvironmentalDeaths Metric = "EnvironmentalDeaths"
	MetricCriticalHits        Metric = "CriticalHits"
	MetricShotsFired          Metric = "ShotsFired"
	MetricShotsHit            Metric = "ShotsHit"
	MetricHeroTimePlayed      Metric = "HeroTimePlayed"

	// Derived ratio metrics, computed at every accumulation level.
	MetricKD          Metric = "KD"
	MetricKDA         Metric = "KDA"
	MetricDamageDelta Metric = "DamageDelta"
	MetricFBE         Metric = "FBE"
	MetricDamageFB    Metric = "DamageFB"
	MetricAssists     Metric = "Assists"

	// Per-round MVP measure.
	MetricPerformance       Metric = "Performance"
	MetricPerformancePoints Metric = "PerformancePoints"
)

// MatchStatistic is one (round, player, hero?, metric) measurement.
// Round 0 means whole-match totals; an empty Hero means "across heroes".
type MatchStatistic struct {
	MatchID string
	Round   int
	TeamID  int64
	UserID  int64
	Hero    string
	Metric  Metric
	Value   float64
}

// KillFeedEntry is one recorded kill, tagged with the fight it belongs to.
type KillFeedEntry struct {
	MatchID         string
	Round           int
	Timestamp       float64
	FightID         int
	KillerTeamID    int64
	KillerUserID    int64
	KillerHero      string
	VictimTeamID    int64
	VictimUserID    int64
	VictimHero      string
	Ability         string
	Damage          float64
	IsCrit          bool
	IsEnvironmental bool
}

// MatchEventRecord is one non-kill gameplay event on the match timeline.
type MatchEventRecord struct {
	MatchID       string
	Round         int
	Timestamp     float64
	Kind          EventKind
	TeamID        int64
	UserID        int64
	Hero          string
	RelatedUserID *int64
	RelatedHero   string
}

// Fight is a temporally clustered set of kills with no internal gap
// exceeding the clustering threshold.
type Fight struct {
	ID        int
	StartedAt float64
	EndedAt   float64
	Kills     int
}
