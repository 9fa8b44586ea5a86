package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/kalambet/recapture/internal/api"
	"github.com/kalambet/recapture/internal/viewmodel"
)

func newTestDashboard(t *testing.T, f *fakeGuardian) *Dashboard {
	t.Helper()
	d := New(api.New(f.URL), Config{FeedMode: viewmodel.FeedPaginated, FeedPageSize: 5})
	t.Cleanup(d.Close)
	return d
}

func TestSubjects_LoadSelectsFirstWithEmptyAuthorities(t *testing.T) {
	f := newFakeGuardian(t)
	f.setSubjects(`{"id":"1","name":"A","age":14,"risk_level":"Low"}`)
	d := newTestDashboard(t, f)

	if err := d.Subjects.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d.Subjects.List.Selected() != "1" {
		t.Errorf("selected = %q, want 1", d.Subjects.List.Selected())
	}
	if f.hitCount("GET /api/subjects/1/authorities") != 1 {
		t.Error("authorities of subject 1 not fetched")
	}
	if deps := d.Subjects.List.Dependents(); len(deps) != 0 {
		t.Errorf("authorities = %v, want empty", deps)
	}
	if _, ok := d.Banner.Last(); ok {
		t.Error("empty authorities raised a notice")
	}
}

func TestSubjects_AddAuthorityRefreshesOnlyAuthorities(t *testing.T) {
	f := newFakeGuardian(t)
	f.setSubjects(`{"id":"1","name":"A","age":14,"risk_level":"Low"}`)
	d := newTestDashboard(t, f)
	ctx := context.Background()
	_ = d.Subjects.Load(ctx)

	subjectsBefore := f.hitCount("GET /api/subjects")
	err := d.Subjects.AddAuthority(ctx, api.Authority{Name: "Coach", Role: "coach", Relation: "mentor"})
	if err != nil {
		t.Fatalf("AddAuthority: %v", err)
	}

	if f.hitCount("GET /api/subjects/1/authorities") != 2 {
		t.Errorf("authorities fetched %d times, want 2", f.hitCount("GET /api/subjects/1/authorities"))
	}
	if f.hitCount("GET /api/subjects") != subjectsBefore {
		t.Error("subject list refetched after adding an authority")
	}
	deps := d.Subjects.List.Dependents()
	if len(deps) != 1 || deps[0].Name != "Coach" {
		t.Errorf("authorities = %+v", deps)
	}
}

func TestSubjects_AddAuthorityNeedsSelection(t *testing.T) {
	f := newFakeGuardian(t)
	d := newTestDashboard(t, f)

	err := d.Subjects.AddAuthority(context.Background(), api.Authority{Name: "X"})
	if !errors.Is(err, ErrNoSelection) {
		t.Errorf("err = %v, want ErrNoSelection", err)
	}
}

func TestSubjects_UpdateNotesPassesThroughUnknownFields(t *testing.T) {
	f := newFakeGuardian(t)
	f.setSubjects(`{"id":"1","name":"A","age":14,"risk_level":"Low","school":"North"}`)
	d := newTestDashboard(t, f)
	ctx := context.Background()
	_ = d.Subjects.Load(ctx)

	if err := d.Subjects.UpdateNotes(ctx, "1", "quiet this week"); err != nil {
		t.Fatalf("UpdateNotes: %v", err)
	}

	var sent map[string]any
	if err := json.Unmarshal([]byte(f.body("PUT /api/subjects/1")), &sent); err != nil {
		t.Fatalf("decoding PUT body: %v", err)
	}
	if sent["school"] != "North" || sent["notes"] != "quiet this week" {
		t.Errorf("PUT body = %v", sent)
	}
	if f.hitCount("GET /api/subjects") != 2 {
		t.Error("subjects not refreshed after notes update")
	}
}

func TestIntel_ApproveRefreshesOnlyContent(t *testing.T) {
	f := newFakeGuardian(t)
	f.content = []api.ContentItem{{ID: "c1", Status: api.ContentPending}}
	d := newTestDashboard(t, f)
	ctx := context.Background()
	_ = d.Intel.Load(ctx)

	untouched := []string{"GET /api/subjects", "GET /pipeline/stats", "GET /sources", "GET /trends"}
	before := make(map[string]int, len(untouched))
	for _, k := range untouched {
		before[k] = f.hitCount(k)
	}

	if err := d.Intel.Approve(ctx, "c1"); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	if f.hitCount("GET /pipeline/content") != 2 {
		t.Errorf("content fetched %d times, want 2", f.hitCount("GET /pipeline/content"))
	}
	for k, n := range before {
		if f.hitCount(k) != n {
			t.Errorf("%s refetched after approve", k)
		}
	}
	items, _ := d.Intel.Content.Get()
	if len(items) != 1 || items[0].Status != api.ContentApproved {
		t.Errorf("content = %+v", items)
	}
}

func TestIntel_ApproveTwiceFailsGracefully(t *testing.T) {
	f := newFakeGuardian(t)
	f.content = []api.ContentItem{{ID: "c1", Status: api.ContentPending}}
	d := newTestDashboard(t, f)
	ctx := context.Background()
	_ = d.Intel.Load(ctx)

	_ = d.Intel.Approve(ctx, "c1")
	err := d.Intel.Approve(ctx, "c1")
	if api.StatusCode(err) != 400 {
		t.Errorf("second approve err = %v, want 400", err)
	}
	notice, ok := d.Banner.Last()
	if !ok || notice.Level != viewmodel.LevelError {
		t.Errorf("banner = %+v, %v", notice, ok)
	}
	items, _ := d.Intel.Content.Get()
	if len(items) != 1 {
		t.Errorf("inbox has %d items, want 1", len(items))
	}
}

func TestIntel_ApproveFailureLeavesStateUntouched(t *testing.T) {
	f := newFakeGuardian(t)
	f.content = []api.ContentItem{{ID: "c1", Status: api.ContentPending}}
	d := newTestDashboard(t, f)
	ctx := context.Background()
	_ = d.Intel.Load(ctx)
	f.fail("POST /pipeline/content/c1/approve", 500)

	if err := d.Intel.Approve(ctx, "c1"); err == nil {
		t.Fatal("expected error")
	}
	if f.hitCount("GET /pipeline/content") != 1 {
		t.Error("content refetched after failed approve")
	}
	items, _ := d.Intel.Content.Get()
	if items[0].Status != api.ContentPending {
		t.Errorf("local state mutated: %+v", items[0])
	}
}

func TestIntel_TrainBatchRefreshesContentAndStats(t *testing.T) {
	f := newFakeGuardian(t)
	f.content = []api.ContentItem{{ID: "c1", Status: api.ContentApproved}, {ID: "c2", Status: api.ContentPending}}
	d := newTestDashboard(t, f)
	ctx := context.Background()
	_ = d.Intel.Load(ctx)
	subjects := f.hitCount("GET /api/subjects")

	res, err := d.Intel.TrainBatch(ctx)
	if err != nil {
		t.Fatalf("TrainBatch: %v", err)
	}
	if res.TotalDocuments != 1 {
		t.Errorf("TotalDocuments = %d, want 1", res.TotalDocuments)
	}
	if f.hitCount("GET /pipeline/content") != 2 || f.hitCount("GET /pipeline/stats") != 2 {
		t.Error("content and stats not both refreshed")
	}
	if f.hitCount("GET /api/subjects") != subjects {
		t.Error("subjects refetched after training")
	}

	s := d.Intel.Summary()
	if s.Trained != 1 || s.Pending != 1 || s.TotalDocuments != 1 {
		t.Errorf("summary = %+v", s)
	}
}

func TestIntel_QueueTrendRefreshesTrendsAndContent(t *testing.T) {
	f := newFakeGuardian(t)
	d := newTestDashboard(t, f)
	ctx := context.Background()
	_ = d.Intel.Load(ctx)

	if err := d.Intel.QueueTrend(ctx, "t1"); err != nil {
		t.Fatalf("QueueTrend: %v", err)
	}
	if f.hitCount("GET /trends") != 2 || f.hitCount("GET /pipeline/content") != 2 {
		t.Error("trends and content not both refreshed")
	}
	if f.hitCount("GET /sources") != 1 {
		t.Error("sources refetched")
	}
}

func TestIntel_IngestRefreshesSelectedLogs(t *testing.T) {
	f := newFakeGuardian(t)
	f.setSubjects(`{"id":"p1","name":"P","age":12,"risk_level":"Low"}`)
	d := newTestDashboard(t, f)
	ctx := context.Background()
	_ = d.Intel.Load(ctx)

	if err := d.Intel.Ingest(ctx, "join our server", "Simulated Device Input", time.Now()); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	logs := d.Intel.Profiles.Dependents()
	if len(logs) != 1 || logs[0].Content != "join our server" {
		t.Errorf("logs = %+v", logs)
	}
	if s := d.Intel.Summary(); s.Logs != 1 || s.AverageRisk != 0.5 {
		t.Errorf("summary = %+v", s)
	}
}

func TestIntel_LoadReportsPartialFailure(t *testing.T) {
	f := newFakeGuardian(t)
	f.fail("GET /trends", 503)
	d := newTestDashboard(t, f)

	err := d.Intel.Load(context.Background())
	if err == nil {
		t.Fatal("expected joined error")
	}
	if _, ok := d.Intel.Topics.Get(); !ok {
		t.Error("topics not loaded despite unrelated failure")
	}
	if _, ok := d.Intel.Trends.Get(); ok {
		t.Error("trends marked loaded after failure")
	}
}

func TestDetail_MissingRiskProfileIsNotAnError(t *testing.T) {
	f := newFakeGuardian(t)
	d := newTestDashboard(t, f)
	detail := d.Detail("s1")

	if err := detail.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if detail.HasRiskProfile() {
		t.Error("HasRiskProfile = true for a 404")
	}
	if q := f.hitCount("GET /api/subjects/s1/social-posts"); q != 1 {
		t.Errorf("posts fetched %d times", q)
	}
	subject, _ := detail.Subject.Get()
	if subject.Name != "Detail" {
		t.Errorf("subject = %+v", subject)
	}
}

func TestCloneLab_SessionAndEmptyHistory(t *testing.T) {
	f := newFakeGuardian(t)
	f.clones = []api.Clone{{ID: "c9", SubjectID: "s1", Status: api.CloneReady}}
	d := newTestDashboard(t, f)
	ctx := context.Background()

	if err := d.Clones.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if _, err := d.Clones.Session("nobody", nil); !errors.Is(err, ErrNoClone) {
		t.Errorf("Session(nobody) err = %v", err)
	}

	s, err := d.Clones.Session("s1", func() string { return "zu" })
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if err := s.Send(ctx, "hey"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if score, ok := s.LastScore(); !ok || score != 0.3 {
		t.Errorf("LastScore = %v, %v", score, ok)
	}
	var sent api.CloneChatRequest
	_ = json.Unmarshal([]byte(f.body("POST /api/clones/c9/chat")), &sent)
	if sent.Language != "zu" || sent.SubjectID != "s1" {
		t.Errorf("chat request = %+v", sent)
	}

	hist, err := d.Clones.History(ctx, "s1")
	if err != nil || len(hist) != 0 {
		t.Errorf("History = %v, %v; want empty, nil", hist, err)
	}
}

func TestCloneLab_RetrainRefreshesClones(t *testing.T) {
	f := newFakeGuardian(t)
	f.clones = []api.Clone{{ID: "c9", SubjectID: "s1", Status: api.ClonePending}}
	d := newTestDashboard(t, f)
	ctx := context.Background()
	_ = d.Clones.Load(ctx)

	if err := d.Clones.Retrain(ctx, "s1"); err != nil {
		t.Fatalf("Retrain: %v", err)
	}
	if f.hitCount("GET /api/clones") != 2 {
		t.Error("clones not refreshed")
	}
	if f.hitCount("GET /api/subjects") != 1 {
		t.Error("subjects refetched on retrain")
	}
}

func TestListening_PromoteRefreshesNothing(t *testing.T) {
	f := newFakeGuardian(t)
	d := newTestDashboard(t, f)
	ctx := context.Background()

	if err := d.Listening.Feed.Mount(ctx); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	feedHits := f.hitCount("GET /api/listening/feed")

	if err := d.Listening.Promote(ctx, "fi1"); err != nil {
		t.Fatalf("Promote: %v", err)
	}
	if f.hitCount("GET /api/listening/feed") != feedHits {
		t.Error("feed refetched after promote")
	}
	var sent api.FeedItem
	_ = json.Unmarshal([]byte(f.body("POST /api/listening/promote")), &sent)
	if sent.ID != "fi1" || sent.Content != "bad take" {
		t.Errorf("promoted item = %+v", sent)
	}
	if n, ok := d.Banner.Last(); !ok || n.Level != viewmodel.LevelInfo {
		t.Errorf("banner = %+v", n)
	}

	if err := d.Listening.Promote(ctx, "missing"); !errors.Is(err, ErrUnknownItem) {
		t.Errorf("Promote(missing) err = %v", err)
	}
}
