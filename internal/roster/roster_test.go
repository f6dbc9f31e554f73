package roster

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/scrimsight/go-scrim-metrics/internal/model"
)

// fakeCatalog is an in-memory Catalog for resolver tests.
type fakeCatalog struct {
	teams        []model.Team
	players      map[int64][]model.Player // by team id
	users        map[int64]*model.User
	aliases      map[string]int64 // lowercased alias -> user id
	nextPlayerID int64
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		players: make(map[int64][]model.Player),
		users:   make(map[int64]*model.User),
		aliases: make(map[string]int64),
	}
}

func (f *fakeCatalog) addTeam(id int64, name string) {
	f.teams = append(f.teams, model.Team{ID: id, TournamentID: 1, Name: name})
}

func (f *fakeCatalog) addUser(id int64, displayName, battleTag string) {
	f.users[id] = &model.User{ID: id, DisplayName: displayName, BattleTag: battleTag}
}

func (f *fakeCatalog) addPlayer(teamID, userID int64, role model.Role) model.Player {
	f.nextPlayerID++
	p := model.Player{ID: f.nextPlayerID, TeamID: teamID, UserID: userID, Role: role, Rank: 3000, Division: "diamond"}
	f.players[teamID] = append(f.players[teamID], p)
	return p
}

func (f *fakeCatalog) TeamsByTournament(_ context.Context, tournamentID int64) ([]model.Team, error) {
	var out []model.Team
	for _, t := range f.teams {
		if t.TournamentID == tournamentID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeCatalog) PlayersByTeam(_ context.Context, teamID int64) ([]model.Player, error) {
	return append([]model.Player(nil), f.players[teamID]...), nil
}

func (f *fakeCatalog) UserByID(_ context.Context, userID int64) (*model.User, error) {
	return f.users[userID], nil
}

func (f *fakeCatalog) UserByName(_ context.Context, name string) (*model.User, error) {
	folded := strings.ToLower(name)
	for _, u := range f.users {
		if strings.ToLower(u.DisplayName) == folded {
			return u, nil
		}
	}
	if id, ok := f.aliases[folded]; ok {
		return f.users[id], nil
	}
	return nil, nil
}

func (f *fakeCatalog) UserByBattleTag(_ context.Context, tag string) (*model.User, error) {
	folded := strings.ToLower(tag)
	for _, u := range f.users {
		full := strings.ToLower(u.BattleTag)
		stem := full
		if i := strings.Index(full, "#"); i > 0 {
			stem = full[:i]
		}
		if full == folded || stem == folded {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) AddUserAlias(_ context.Context, userID int64, alias string) error {
	f.aliases[strings.ToLower(alias)] = userID
	return nil
}

func (f *fakeCatalog) LatestRosterEntry(_ context.Context, userID int64, role model.Role) (*model.Player, error) {
	var latest *model.Player
	for _, players := range f.players {
		for i := range players {
			p := players[i]
			if p.UserID == userID && p.Role == role && (latest == nil || p.ID > latest.ID) {
				latest = &p
			}
		}
	}
	return latest, nil
}

func (f *fakeCatalog) CreatePlayer(_ context.Context, p *model.Player) error {
	f.nextPlayerID++
	p.ID = f.nextPlayerID
	f.players[p.TeamID] = append(f.players[p.TeamID], *p)
	return nil
}

// seedTeams builds two five-player teams: Alpha (users 1-5) and Bravo
// (users 6-10), display names a1..a5 / b1..b5.
func seedTeams(f *fakeCatalog) {
	f.addTeam(1, "Alpha")
	f.addTeam(2, "Bravo")
	roles := []model.Role{model.RoleTank, model.RoleDamage, model.RoleDamage, model.RoleSupport, model.RoleSupport}
	for i := int64(1); i <= 5; i++ {
		f.addUser(i, names("a")[i-1], names("a")[i-1]+"#1000")
		f.addPlayer(1, i, roles[i-1])
	}
	for i := int64(6); i <= 10; i++ {
		f.addUser(i, names("b")[i-6], names("b")[i-6]+"#2000")
		f.addPlayer(2, i, roles[i-6])
	}
}

func names(prefix string) []string {
	return []string{prefix + "1", prefix + "2", prefix + "3", prefix + "4", prefix + "5"}
}

func TestByDisplayNameVariants(t *testing.T) {
	f := newFakeCatalog()
	f.addUser(1, "Shadow", "Shadow#1234")

	ctx := context.Background()
	for _, raw := range []string{"Shadow", "shadow", "SHADOW"} {
		u, err := ByDisplayName(ctx, f, raw)
		if err != nil {
			t.Fatalf("ByDisplayName(%q): %v", raw, err)
		}
		if u == nil || u.ID != 1 {
			t.Errorf("ByDisplayName(%q) = %v, want user 1", raw, u)
		}
	}

	u, err := ByDisplayName(ctx, f, "nobody")
	if err != nil || u != nil {
		t.Errorf("expected miss for unknown name, got %v, %v", u, err)
	}
}

func TestByBattleTagStem(t *testing.T) {
	f := newFakeCatalog()
	f.addUser(1, "DisplayName", "Hunter#4821")

	ctx := context.Background()
	for _, raw := range []string{"Hunter", "hunter", "Hunter#4821"} {
		u, err := ByBattleTag(ctx, f, raw)
		if err != nil {
			t.Fatalf("ByBattleTag(%q): %v", raw, err)
		}
		if u == nil || u.ID != 1 {
			t.Errorf("ByBattleTag(%q) = %v, want user 1", raw, u)
		}
	}
}

func TestResolveSideExact(t *testing.T) {
	f := newFakeCatalog()
	seedTeams(f)
	r := NewResolver(f)

	lineup, err := r.ResolveSide(context.Background(), 1, names("a"))
	if err != nil {
		t.Fatalf("ResolveSide: %v", err)
	}
	if lineup.Team.Name != "Alpha" {
		t.Fatalf("resolved team %q, want Alpha", lineup.Team.Name)
	}
	if len(lineup.Players) != 5 {
		t.Errorf("lineup has %d players, want 5", len(lineup.Players))
	}
	p, ok := lineup.Player("a3")
	if !ok || p.UserID != 3 {
		t.Errorf("Player(a3) = %+v, %v", p, ok)
	}
}

func TestResolveSideDeterministic(t *testing.T) {
	f := newFakeCatalog()
	seedTeams(f)
	r := NewResolver(f)

	first, err := r.ResolveSide(context.Background(), 1, names("b"))
	if err != nil {
		t.Fatalf("ResolveSide: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := r.ResolveSide(context.Background(), 1, names("b"))
		if err != nil {
			t.Fatalf("ResolveSide (run %d): %v", i, err)
		}
		if again.Team.ID != first.Team.ID {
			t.Fatalf("team changed between runs: %d vs %d", again.Team.ID, first.Team.ID)
		}
		if !reflect.DeepEqual(keysOf(again.Players), keysOf(first.Players)) {
			t.Fatalf("lineup changed between runs")
		}
	}
}

func keysOf(m map[string]*model.Player) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestResolveSideRenameRepair(t *testing.T) {
	f := newFakeCatalog()
	seedTeams(f)
	r := NewResolver(f)

	// a5 shows up under a brand-new battle tag.
	raw := []string{"a1", "a2", "a3", "a4", "FreshTag"}
	lineup, err := r.ResolveSide(context.Background(), 1, raw)
	if err != nil {
		t.Fatalf("ResolveSide: %v", err)
	}
	if len(lineup.Players) != 5 {
		t.Fatalf("lineup has %d players, want 5", len(lineup.Players))
	}
	p, ok := lineup.Player("FreshTag")
	if !ok || p.UserID != 5 {
		t.Fatalf("FreshTag resolved to %+v, want user 5", p)
	}
	if _, ok := f.aliases["freshtag"]; !ok {
		t.Error("expected the new name recorded as an alias")
	}

	// The alias makes the next run resolve without repair.
	again, err := r.ResolveSide(context.Background(), 1, raw)
	if err != nil {
		t.Fatalf("ResolveSide after alias: %v", err)
	}
	if p, ok := again.Player("FreshTag"); !ok || p.UserID != 5 {
		t.Errorf("alias lookup failed on second run: %+v", p)
	}
}

func TestResolveSideSubstitutionRepair(t *testing.T) {
	f := newFakeCatalog()
	seedTeams(f)
	// A known player outside both rosters stands in for a5.
	f.addUser(99, "Standin", "Standin#9999")
	r := NewResolver(f)

	lineup, err := r.ResolveSide(context.Background(), 1, []string{"a1", "a2", "a3", "a4", "Standin"})
	if err != nil {
		t.Fatalf("ResolveSide: %v", err)
	}

	sub, ok := lineup.Player("Standin")
	if !ok {
		t.Fatal("stand-in missing from lineup")
	}
	if !sub.IsSubstitution {
		t.Error("expected IsSubstitution on the stand-in entry")
	}
	if sub.RelatedPlayerID == nil {
		t.Fatal("expected RelatedPlayerID linking the missing player")
	}
	missing := f.players[1][4] // a5's original entry
	if *sub.RelatedPlayerID != missing.ID {
		t.Errorf("RelatedPlayerID = %d, want %d", *sub.RelatedPlayerID, missing.ID)
	}
	if sub.Role != missing.Role {
		t.Errorf("substitute role %q, want %q", sub.Role, missing.Role)
	}
}

func TestResolveSideSubstituteKeepsOwnRank(t *testing.T) {
	f := newFakeCatalog()
	seedTeams(f)
	f.addTeam(3, "Retired")
	f.addUser(99, "Standin", "Standin#9999")
	// The stand-in has a prior roster entry in the same role with its own rank.
	f.nextPlayerID++
	f.players[3] = append(f.players[3], model.Player{
		ID: f.nextPlayerID, TeamID: 3, UserID: 99,
		Role: model.RoleSupport, Rank: 4100, Division: "master",
	})
	r := NewResolver(f)

	lineup, err := r.ResolveSide(context.Background(), 1, []string{"a1", "a2", "a3", "a4", "Standin"})
	if err != nil {
		t.Fatalf("ResolveSide: %v", err)
	}
	sub, ok := lineup.Player("Standin")
	if !ok {
		t.Fatal("stand-in missing from lineup")
	}
	if sub.Rank != 4100 || sub.Division != "master" {
		t.Errorf("substitute rank/division = %d/%q, want the stand-in's own 4100/master", sub.Rank, sub.Division)
	}
}

func TestResolveSideCollision(t *testing.T) {
	f := newFakeCatalog()
	seedTeams(f)
	r := NewResolver(f)

	// Two raw names unresolved: more than a single rename can explain.
	_, err := r.ResolveSide(context.Background(), 1, []string{"a1", "a2", "a3", "Ghost1", "Ghost2"})
	var collision *RosterCollisionError
	if !errors.As(err, &collision) {
		t.Fatalf("expected RosterCollisionError, got %v", err)
	}
	if collision.Resolved != 3 {
		t.Errorf("collision reports %d resolved, want 3", collision.Resolved)
	}
}

func TestResolveSideTeamNotFound(t *testing.T) {
	f := newFakeCatalog()
	seedTeams(f)
	r := NewResolver(f)

	_, err := r.ResolveSide(context.Background(), 1, []string{"Ghost1", "Ghost2", "Ghost3"})
	var notFound *TeamNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected TeamNotFoundError, got %v", err)
	}
}

func TestResolveTeamToleratesNoise(t *testing.T) {
	f := newFakeCatalog()
	seedTeams(f)
	// Spectators from Bravo appear in Alpha's name list; the shrinking
	// window still locks onto Alpha via its four genuine players.
	f.addUser(50, "Caster", "Caster#1")
	r := NewResolver(f)

	candidates := []Candidate{
		{RawName: "b1", User: f.users[6]},
		{RawName: "a1", User: f.users[1]},
		{RawName: "a2", User: f.users[2]},
		{RawName: "a3", User: f.users[3]},
		{RawName: "a4", User: f.users[4]},
		{RawName: "a5", User: f.users[5]},
	}
	team, err := r.resolveTeam(context.Background(), 1, candidates)
	if err != nil {
		t.Fatalf("resolveTeam: %v", err)
	}
	if team.Name != "Alpha" {
		t.Errorf("resolved %q, want Alpha", team.Name)
	}
}

func TestMatchRostersResolveAny(t *testing.T) {
	f := newFakeCatalog()
	seedTeams(f)
	r := NewResolver(f)
	ctx := context.Background()

	l1, err := r.ResolveSide(ctx, 1, names("a"))
	if err != nil {
		t.Fatalf("ResolveSide Alpha: %v", err)
	}
	l2, err := r.ResolveSide(ctx, 1, names("b"))
	if err != nil {
		t.Fatalf("ResolveSide Bravo: %v", err)
	}
	m := &MatchRosters{Team1Name: "Alpha", Team2Name: "Bravo", Team1: l1, Team2: l2}

	if p, ok := m.Resolve("Bravo", "b2"); !ok || p.UserID != 7 {
		t.Errorf("Resolve(Bravo, b2) = %+v, %v", p, ok)
	}
	if _, ok := m.Resolve("Charlie", "b2"); ok {
		t.Error("unexpected resolution for unknown team name")
	}
	if p, ok := m.ResolveAny("a4"); !ok || p.UserID != 4 {
		t.Errorf("ResolveAny(a4) = %+v, %v", p, ok)
	}
	if _, ok := m.ResolveAny("nobody"); ok {
		t.Error("unexpected resolution for unknown player")
	}
}
