package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/anonto42/wagwan/backend/internal/models"
	"github.com/anonto42/wagwan/backend/internal/repositories"
	"github.com/anonto42/wagwan/backend/internal/services"
	"github.com/anonto42/wagwan/backend/internal/testutil"
	"github.com/anonto42/wagwan/backend/pkg/livekit"
	"github.com/anonto42/wagwan/backend/validators"
)

type recordingNotifications struct {
	mu    sync.Mutex
	items []models.Notification
	err   error
}

func (r *recordingNotifications) CreateNotifications(_ context.Context, notifications []models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.items = append(r.items, notifications...)
	return nil
}

func (r *recordingNotifications) GetByRecipientID(_ context.Context, recipientID string, limit int) ([]models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Notification
	for _, n := range r.items {
		if n.RecipientID == recipientID && len(out) < limit {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *recordingNotifications) MarkAllAsRead(_ context.Context, recipientID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for i := range r.items {
		if r.items[i].RecipientID == recipientID && !r.items[i].IsRead {
			r.items[i].IsRead = true
			n++
		}
	}
	return n, nil
}

func (r *recordingNotifications) byType(typ models.NotificationType) []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Notification
	for _, n := range r.items {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

type env struct {
	graph         *services.SocialGraph
	streams       *services.StreamLifecycle
	notifications *recordingNotifications
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewDB(t)
	if err := repositories.Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	users := repositories.NewPostgresUserRepository(db)
	follows := repositories.NewPostgresFollowRepository(db)
	streams := repositories.NewPostgresStreamRepository(db)
	cache := repositories.NewNoopUserCache()
	notifications := &recordingNotifications{}
	v := validators.NewValidator()

	return &env{
		graph:         services.NewSocialGraph(users, follows, cache, notifications, v),
		streams:       services.NewStreamLifecycle(streams, follows, cache, notifications, v),
		notifications: notifications,
	}
}

func (e *env) seedUser(t *testing.T, id, username string) *models.User {
	t.Helper()
	user, err := e.graph.UpsertUser(context.Background(), models.UpsertUserRequest{
		ID:       id,
		Username: username,
		Email:    username + "@example.com",
	})
	if err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
	return user
}

func follow(follower, following string) models.FollowRequest {
	return models.FollowRequest{FollowerID: follower, FollowingID: following}
}

func assertKind(t *testing.T, err error, want services.Kind) {
	t.Helper()
	if got := services.KindOf(err); got != want {
		t.Fatalf("error kind = %v (%v), want %v", got, err, want)
	}
}

func strPtr(s string) *string { return &s }

func TestUpsertUserRoundTrip(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created, err := e.graph.UpsertUser(ctx, models.UpsertUserRequest{
		ID:        "user_1",
		Username:  "  alice ",
		Email:     "alice@example.com",
		AvatarURL: strPtr("asset:pfp2"),
		Bio:       strPtr("streaming daily"),
	})
	if err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	if created.Username != "alice" {
		t.Errorf("username = %q, want trimmed alice", created.Username)
	}

	got, err := e.graph.GetUser(ctx, "user_1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Email != "alice@example.com" || got.Bio == nil || *got.Bio != "streaming daily" {
		t.Errorf("GetUser = %+v", got)
	}
	if got.IsStreamer || got.IsVerified {
		t.Errorf("new user flags should be false: %+v", got)
	}
}

func TestUpsertUserValidation(t *testing.T) {
	e := newEnv(t)
	tests := []struct {
		name  string
		req   models.UpsertUserRequest
		field string
	}{
		{"missing id", models.UpsertUserRequest{Username: "a", Email: "a@example.com"}, "id"},
		{"blank username", models.UpsertUserRequest{ID: "u", Username: "   ", Email: "a@example.com"}, "username"},
		{"bad email", models.UpsertUserRequest{ID: "u", Username: "a", Email: "nope"}, "email"},
		{"long bio", models.UpsertUserRequest{ID: "u", Username: "a", Email: "a@example.com", Bio: strPtr(strings.Repeat("x", 161))}, "bio"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.graph.UpsertUser(context.Background(), tt.req)
			assertKind(t, err, services.KindValidation)
			var svcErr *services.Error
			if !errors.As(err, &svcErr) || len(svcErr.Fields) == 0 || svcErr.Fields[0] != tt.field {
				t.Errorf("fields = %v, want [%s]", svcErr.Fields, tt.field)
			}
		})
	}
}

func TestUpsertUserUsernameTaken(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, "user_1", "alice")

	_, err := e.graph.UpsertUser(context.Background(), models.UpsertUserRequest{
		ID:       "user_2",
		Username: "alice",
		Email:    "other@example.com",
	})
	assertKind(t, err, services.KindConflict)
}

func TestGetUserNotFound(t *testing.T) {
	e := newEnv(t)
	_, err := e.graph.GetUser(context.Background(), "ghost")
	assertKind(t, err, services.KindNotFound)
}

func TestSearchUsers(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		e.seedUser(t, fmt.Sprintf("user_%d", i), fmt.Sprintf("gamer%02d", i))
	}
	e.seedUser(t, "other", "Painter")

	short, err := e.graph.SearchUsers(ctx, " g ")
	if err != nil {
		t.Fatalf("SearchUsers short: %v", err)
	}
	if short == nil || len(short) != 0 {
		t.Errorf("one-character query = %v, want empty slice", short)
	}

	capped, err := e.graph.SearchUsers(ctx, "GAMER")
	if err != nil {
		t.Fatalf("SearchUsers: %v", err)
	}
	if len(capped) != 10 {
		t.Errorf("got %d results, want 10", len(capped))
	}

	painter, err := e.graph.SearchUsers(ctx, "int")
	if err != nil {
		t.Fatalf("SearchUsers: %v", err)
	}
	if len(painter) != 1 || painter[0].ID != "other" {
		t.Errorf("search int = %+v", painter)
	}
}

func TestFollowLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seedUser(t, "u1", "alice")
	e.seedUser(t, "u2", "bob")

	if err := e.graph.Follow(ctx, follow("u1", "u2")); err != nil {
		t.Fatalf("Follow: %v", err)
	}

	stats1, _ := e.graph.GetFollowStats(ctx, "u1")
	stats2, _ := e.graph.GetFollowStats(ctx, "u2")
	if *stats1 != (models.FollowStats{Followers: 0, Following: 1}) {
		t.Errorf("u1 stats = %+v", *stats1)
	}
	if *stats2 != (models.FollowStats{Followers: 1, Following: 0}) {
		t.Errorf("u2 stats = %+v", *stats2)
	}

	forward, _ := e.graph.IsFollowing(ctx, follow("u1", "u2"))
	backward, _ := e.graph.IsFollowing(ctx, follow("u2", "u1"))
	if !forward || backward {
		t.Errorf("IsFollowing forward=%v backward=%v, want true/false", forward, backward)
	}

	followers, err := e.graph.ListFollowers(ctx, "u2")
	if err != nil || len(followers) != 1 || followers[0].ID != "u1" {
		t.Errorf("ListFollowers = %+v, %v", followers, err)
	}
	following, err := e.graph.ListFollowing(ctx, "u1")
	if err != nil || len(following) != 1 || following[0].ID != "u2" {
		t.Errorf("ListFollowing = %+v, %v", following, err)
	}

	sent := e.notifications.byType(models.NotificationTypeFollow)
	if len(sent) != 1 || sent[0].RecipientID != "u2" || sent[0].ActorID != "u1" {
		t.Errorf("follow notifications = %+v", sent)
	}

	if err := e.graph.Unfollow(ctx, follow("u1", "u2")); err != nil {
		t.Fatalf("Unfollow: %v", err)
	}
	if err := e.graph.Unfollow(ctx, follow("u1", "u2")); err != nil {
		t.Fatalf("second Unfollow: %v", err)
	}

	for _, id := range []string{"u1", "u2"} {
		stats, _ := e.graph.GetFollowStats(ctx, id)
		if *stats != (models.FollowStats{}) {
			t.Errorf("%s stats after unfollow = %+v", id, *stats)
		}
	}
}

func TestFollowErrors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seedUser(t, "u1", "alice")
	e.seedUser(t, "u2", "bob")
	if err := e.graph.Follow(ctx, follow("u1", "u2")); err != nil {
		t.Fatalf("Follow: %v", err)
	}

	tests := []struct {
		name string
		req  models.FollowRequest
		want services.Kind
	}{
		{"self", follow("u1", "u1"), services.KindInvalidOperation},
		{"missing follower", follow("", "u2"), services.KindValidation},
		{"unknown target", follow("u1", "ghost"), services.KindNotFound},
		{"duplicate", follow("u1", "u2"), services.KindConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertKind(t, e.graph.Follow(ctx, tt.req), tt.want)
		})
	}

	stats, _ := e.graph.GetFollowStats(ctx, "u1")
	if stats.Following != 1 {
		t.Errorf("following = %d after rejected follows, want 1", stats.Following)
	}
}

func TestConcurrentFollowersAreAllCounted(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seedUser(t, "star", "star")

	const n = 20
	for i := 0; i < n; i++ {
		e.seedUser(t, fmt.Sprintf("fan_%d", i), fmt.Sprintf("fan%d", i))
	}

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- e.graph.Follow(ctx, follow(fmt.Sprintf("fan_%d", i), "star"))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("Follow: %v", err)
		}
	}

	stats, err := e.graph.GetFollowStats(ctx, "star")
	if err != nil {
		t.Fatalf("GetFollowStats: %v", err)
	}
	if stats.Followers != n {
		t.Errorf("followers = %d, want %d", stats.Followers, n)
	}
}

func TestFollowSurvivesNotificationFailure(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seedUser(t, "u1", "alice")
	e.seedUser(t, "u2", "bob")
	e.notifications.err = errors.New("mongo down")

	if err := e.graph.Follow(ctx, follow("u1", "u2")); err != nil {
		t.Fatalf("Follow: %v", err)
	}
	ok, _ := e.graph.IsFollowing(ctx, follow("u1", "u2"))
	if !ok {
		t.Error("edge missing after notification failure")
	}
}

func TestNotifications(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seedUser(t, "u1", "alice")
	e.seedUser(t, "u2", "bob")
	e.seedUser(t, "u3", "carol")
	_ = e.graph.Follow(ctx, follow("u1", "u2"))
	_ = e.graph.Follow(ctx, follow("u3", "u2"))

	got, err := e.graph.ListNotifications(ctx, "u2", 0)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d notifications, want 2", len(got))
	}

	one, _ := e.graph.ListNotifications(ctx, "u2", 1)
	if len(one) != 1 {
		t.Errorf("limit 1 returned %d", len(one))
	}

	if err := e.graph.MarkNotificationsRead(ctx, "u2"); err != nil {
		t.Fatalf("MarkNotificationsRead: %v", err)
	}
	got, _ = e.graph.ListNotifications(ctx, "u2", 0)
	for _, n := range got {
		if !n.IsRead {
			t.Errorf("notification still unread: %+v", n)
		}
	}
}

func TestCreateStreamDefaults(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seedUser(t, "u1", "alice")

	stream, err := e.streams.CreateStream(ctx, models.CreateStreamRequest{
		UserID: "u1",
		Title:  "Speedrun",
	})
	if err != nil {
		t.Fatalf("CreateStream: %v", err)
	}
	if stream.ID == 0 {
		t.Error("stream id not assigned")
	}
	if stream.Status != models.StreamStatusLive || stream.ViewerCount != 0 {
		t.Errorf("status=%q viewers=%d, want live/0", stream.Status, stream.ViewerCount)
	}
	if stream.LivekitRoomName == nil || !strings.HasPrefix(*stream.LivekitRoomName, "stream_u1_") {
		t.Errorf("room name = %v", stream.LivekitRoomName)
	}

	owner, err := e.graph.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if !owner.IsStreamer {
		t.Error("owner not marked as streamer")
	}
}

func TestCreateStreamValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seedUser(t, "u1", "alice")

	_, err := e.streams.CreateStream(ctx, models.CreateStreamRequest{UserID: "u1", Title: "  "})
	assertKind(t, err, services.KindValidation)

	_, err = e.streams.CreateStream(ctx, models.CreateStreamRequest{UserID: "u1", Title: "x", Status: "paused"})
	assertKind(t, err, services.KindValidation)

	_, err = e.streams.CreateStream(ctx, models.CreateStreamRequest{UserID: "u1", Title: strings.Repeat("t", 141)})
	assertKind(t, err, services.KindValidation)

	if _, err := e.streams.CreateStream(ctx, models.CreateStreamRequest{UserID: "u1", Title: strings.Repeat("t", 140)}); err != nil {
		t.Errorf("140-character title: %v", err)
	}

	_, err = e.streams.CreateStream(ctx, models.CreateStreamRequest{UserID: "ghost", Title: "x"})
	assertKind(t, err, services.KindNotFound)
}

func TestCreateLiveStreamReplacesPreviousLiveStream(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seedUser(t, "u1", "alice")

	first, err := e.streams.CreateStream(ctx, models.CreateStreamRequest{UserID: "u1", Title: "first"})
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := e.streams.UpdateViewerCount(ctx, first.ID, models.UpdateViewerCountRequest{ViewerCount: intPtr(7)}); err != nil {
		t.Fatalf("UpdateViewerCount: %v", err)
	}
	second, err := e.streams.CreateStream(ctx, models.CreateStreamRequest{UserID: "u1", Title: "second"})
	if err != nil {
		t.Fatalf("second: %v", err)
	}

	live, err := e.streams.ListLiveStreams(ctx)
	if err != nil {
		t.Fatalf("ListLiveStreams: %v", err)
	}
	if len(live) != 1 || live[0].ID != second.ID {
		t.Errorf("live streams = %+v, want only %d", live, second.ID)
	}

	old, err := e.streams.GetStream(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetStream: %v", err)
	}
	if old.Status != models.StreamStatusOffline || old.ViewerCount != 0 {
		t.Errorf("replaced stream = %q/%d, want offline/0", old.Status, old.ViewerCount)
	}

	all, _ := e.streams.ListUserStreams(ctx, "u1")
	if len(all) != 2 {
		t.Errorf("user streams = %d, want 2", len(all))
	}
}

func TestLiveStreamNotifiesFollowers(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seedUser(t, "host", "host")
	e.seedUser(t, "f1", "fan1")
	e.seedUser(t, "f2", "fan2")
	_ = e.graph.Follow(ctx, follow("f1", "host"))
	_ = e.graph.Follow(ctx, follow("f2", "host"))

	if _, err := e.streams.CreateStream(ctx, models.CreateStreamRequest{
		UserID: "host",
		Title:  "rehearsal",
		Status: models.StreamStatusOffline,
	}); err != nil {
		t.Fatalf("offline stream: %v", err)
	}
	if got := e.notifications.byType(models.NotificationTypeLive); len(got) != 0 {
		t.Fatalf("offline stream sent %d live notifications", len(got))
	}

	stream, err := e.streams.CreateStream(ctx, models.CreateStreamRequest{UserID: "host", Title: "show"})
	if err != nil {
		t.Fatalf("live stream: %v", err)
	}
	got := e.notifications.byType(models.NotificationTypeLive)
	if len(got) != 2 {
		t.Fatalf("live notifications = %d, want 2", len(got))
	}
	for _, n := range got {
		if n.ActorID != "host" || n.StreamID != stream.ID || n.Message != "is live: show" {
			t.Errorf("notification = %+v", n)
		}
	}
}

func TestEndStreamAndViewerCount(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seedUser(t, "u1", "alice")
	stream, err := e.streams.CreateStream(ctx, models.CreateStreamRequest{UserID: "u1", Title: "show"})
	if err != nil {
		t.Fatalf("CreateStream: %v", err)
	}

	updated, err := e.streams.UpdateViewerCount(ctx, stream.ID, models.UpdateViewerCountRequest{ViewerCount: intPtr(42)})
	if err != nil {
		t.Fatalf("UpdateViewerCount: %v", err)
	}
	if updated.ViewerCount != 42 {
		t.Errorf("viewers = %d, want 42", updated.ViewerCount)
	}

	_, err = e.streams.UpdateViewerCount(ctx, stream.ID, models.UpdateViewerCountRequest{ViewerCount: intPtr(-1)})
	assertKind(t, err, services.KindValidation)
	_, err = e.streams.UpdateViewerCount(ctx, stream.ID, models.UpdateViewerCountRequest{})
	assertKind(t, err, services.KindValidation)

	ended, err := e.streams.EndStream(ctx, stream.ID)
	if err != nil {
		t.Fatalf("EndStream: %v", err)
	}
	if ended.Status != models.StreamStatusOffline || ended.ViewerCount != 0 {
		t.Errorf("ended = %q/%d, want offline/0", ended.Status, ended.ViewerCount)
	}

	_, err = e.streams.EndStream(ctx, 9999)
	assertKind(t, err, services.KindNotFound)
	_, err = e.streams.GetStream(ctx, 9999)
	assertKind(t, err, services.KindNotFound)
}

func intPtr(n int) *int { return &n }

type fakeSigner struct {
	got livekit.AccessRequest
	err error
}

func (f *fakeSigner) Sign(req livekit.AccessRequest) (string, error) {
	f.got = req
	if f.err != nil {
		return "", f.err
	}
	return "signed-token", nil
}

func TestIssueRoomToken(t *testing.T) {
	signer := &fakeSigner{}
	tokens := services.NewRoomTokens(signer, validators.NewValidator())

	got, err := tokens.IssueRoomToken(models.RoomTokenRequest{
		UserID:      "u1",
		Username:    "alice",
		RoomName:    "stream_u1_1",
		IsPublisher: true,
	})
	if err != nil {
		t.Fatalf("IssueRoomToken: %v", err)
	}
	if got.Token != "signed-token" || got.RoomName != "stream_u1_1" {
		t.Errorf("token = %+v", got)
	}
	want := livekit.AccessRequest{Identity: "u1", Name: "alice", Room: "stream_u1_1", CanPublish: true}
	if signer.got != want {
		t.Errorf("signer got %+v, want %+v", signer.got, want)
	}
}

func TestIssueRoomTokenErrors(t *testing.T) {
	signer := &fakeSigner{err: livekit.ErrMissingCredentials}
	tokens := services.NewRoomTokens(signer, validators.NewValidator())

	_, err := tokens.IssueRoomToken(models.RoomTokenRequest{UserID: "u1", Username: "alice"})
	assertKind(t, err, services.KindValidation)

	_, err = tokens.IssueRoomToken(models.RoomTokenRequest{UserID: "u1", Username: "alice", RoomName: "r"})
	assertKind(t, err, services.KindExternal)
	if !errors.Is(err, livekit.ErrMissingCredentials) {
		t.Errorf("cause lost: %v", err)
	}
}
