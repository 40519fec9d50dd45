package worker

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/shaiso/Boostgram/internal/domain"
	"github.com/shaiso/Boostgram/internal/session"
)

// fakeSession записывает вызовы и возвращает заданную ошибку.
type fakeSession struct {
	err   error
	calls []string

	lastRef      session.ChannelRef
	lastPostID   int64
	lastReaction string
	lastText     string
	lastUsername string
	lastStart    string
	lastStoryID  int64
}

func (f *fakeSession) AccountID() int64 { return 42 }

func (f *fakeSession) Subscribe(_ context.Context, ch session.ChannelRef) error {
	f.calls = append(f.calls, "subscribe")
	f.lastRef = ch
	return f.err
}

func (f *fakeSession) Leave(_ context.Context, ch session.ChannelRef) error {
	f.calls = append(f.calls, "leave")
	f.lastRef = ch
	return f.err
}

func (f *fakeSession) React(_ context.Context, ch session.ChannelRef, postID int64, reaction string) error {
	f.calls = append(f.calls, "react")
	f.lastRef, f.lastPostID, f.lastReaction = ch, postID, reaction
	return f.err
}

func (f *fakeSession) Comment(_ context.Context, ch session.ChannelRef, postID int64, text string) error {
	f.calls = append(f.calls, "comment")
	f.lastRef, f.lastPostID, f.lastText = ch, postID, text
	return f.err
}

func (f *fakeSession) View(_ context.Context, ch session.ChannelRef, postID int64) error {
	f.calls = append(f.calls, "view")
	f.lastRef, f.lastPostID = ch, postID
	return f.err
}

func (f *fakeSession) StartBot(_ context.Context, username, start string) error {
	f.calls = append(f.calls, "start_bot")
	f.lastUsername, f.lastStart = username, start
	return f.err
}

func (f *fakeSession) ReactStory(_ context.Context, username string, storyID int64, reaction string) error {
	f.calls = append(f.calls, "react_story")
	f.lastUsername, f.lastStoryID, f.lastReaction = username, storyID, reaction
	return f.err
}

func (f *fakeSession) UpdateProfile(_ context.Context, _ domain.ProfileUpdate) error {
	f.calls = append(f.calls, "update_profile")
	return f.err
}

func taskWith(action domain.Action, payload domain.TaskPayload) *domain.Task {
	return domain.NewTask(domain.SubjectQuota, uuid.New(), action, payload)
}

func TestRegistryCoversAllActions(t *testing.T) {
	r := NewRegistry(nil)
	if err := r.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	for _, action := range domain.Actions {
		if _, err := r.Get(action); err != nil {
			t.Errorf("Get(%s) = %v", action, err)
		}
	}

	if _, err := r.Get(domain.Action("teleport")); err == nil {
		t.Error("Get(unknown) = nil, want error")
	}
}

func TestSubscribeExecutor(t *testing.T) {
	sess := &fakeSession{}
	e := &SubscribeExecutor{}

	res := e.Execute(context.Background(), sess, taskWith(domain.ActionSubscribe, domain.TaskPayload{
		Link: "https://t.me/somechannel",
	}))

	if !res.OK {
		t.Fatalf("OK = false, error = %q", res.Error)
	}
	if sess.lastRef.Username != "somechannel" {
		t.Errorf("Username = %q, want %q", sess.lastRef.Username, "somechannel")
	}
}

func TestSubscribeExecutorMissingLink(t *testing.T) {
	sess := &fakeSession{}
	e := &SubscribeExecutor{}

	res := e.Execute(context.Background(), sess, taskWith(domain.ActionSubscribe, domain.TaskPayload{}))

	if res.OK {
		t.Fatal("OK = true, want false")
	}
	if !strings.Contains(res.Error, "invalid payload") {
		t.Errorf("Error = %q, want invalid payload", res.Error)
	}
	if len(sess.calls) != 0 {
		t.Errorf("capability called on invalid payload: %v", sess.calls)
	}
}

func TestJoinExecutorRequiresInviteHash(t *testing.T) {
	sess := &fakeSession{}
	e := &JoinExecutor{}

	// username-ссылка без invite-хэша не годится для join
	res := e.Execute(context.Background(), sess, taskWith(domain.ActionJoin, domain.TaskPayload{
		Link: "https://t.me/somechannel",
	}))
	if res.OK {
		t.Fatal("OK = true for username link, want false")
	}

	res = e.Execute(context.Background(), sess, taskWith(domain.ActionJoin, domain.TaskPayload{
		Link: "https://t.me/+AbCdEf123",
	}))
	if !res.OK {
		t.Fatalf("OK = false, error = %q", res.Error)
	}
	if sess.lastRef.InviteHash != "AbCdEf123" {
		t.Errorf("InviteHash = %q, want %q", sess.lastRef.InviteHash, "AbCdEf123")
	}
}

func TestReactExecutorRequiresPostID(t *testing.T) {
	sess := &fakeSession{}
	e := &ReactExecutor{}

	res := e.Execute(context.Background(), sess, taskWith(domain.ActionReact, domain.TaskPayload{
		Link:     "https://t.me/somechannel",
		Reaction: "🔥",
	}))
	if res.OK {
		t.Fatal("OK = true without post_id, want false")
	}
	if !strings.Contains(res.Error, "post_id") {
		t.Errorf("Error = %q, want post_id mentioned", res.Error)
	}

	res = e.Execute(context.Background(), sess, taskWith(domain.ActionReact, domain.TaskPayload{
		Link:     "https://t.me/somechannel/77",
		Reaction: "🔥",
	}))
	if !res.OK {
		t.Fatalf("OK = false, error = %q", res.Error)
	}
	if sess.lastPostID != 77 || sess.lastReaction != "🔥" {
		t.Errorf("React(%d, %q), want (77, 🔥)", sess.lastPostID, sess.lastReaction)
	}
}

func TestCommentExecutorRequiresText(t *testing.T) {
	sess := &fakeSession{}
	e := &CommentExecutor{}

	res := e.Execute(context.Background(), sess, taskWith(domain.ActionComment, domain.TaskPayload{
		Link: "https://t.me/somechannel/77",
	}))
	if res.OK {
		t.Fatal("OK = true without comment_text, want false")
	}

	res = e.Execute(context.Background(), sess, taskWith(domain.ActionComment, domain.TaskPayload{
		Link:        "https://t.me/somechannel/77",
		CommentText: "nice",
	}))
	if !res.OK {
		t.Fatalf("OK = false, error = %q", res.Error)
	}
	if sess.lastText != "nice" {
		t.Errorf("Comment text = %q, want %q", sess.lastText, "nice")
	}
}

func TestStoryReactExecutor(t *testing.T) {
	sess := &fakeSession{}
	e := &StoryReactExecutor{}

	res := e.Execute(context.Background(), sess, taskWith(domain.ActionStoryReact, domain.TaskPayload{
		Link:     "https://t.me/somechannel/s/5",
		Reaction: "❤️",
	}))
	if !res.OK {
		t.Fatalf("OK = false, error = %q", res.Error)
	}
	if sess.lastUsername != "somechannel" || sess.lastStoryID != 5 {
		t.Errorf("ReactStory(%q, %d), want (somechannel, 5)", sess.lastUsername, sess.lastStoryID)
	}
}

func TestBotStartExecutorPassesDeepLink(t *testing.T) {
	sess := &fakeSession{}
	e := &BotStartExecutor{}

	res := e.Execute(context.Background(), sess, taskWith(domain.ActionBotStart, domain.TaskPayload{
		Link: "https://t.me/somebot?start=ref42",
	}))
	if !res.OK {
		t.Fatalf("OK = false, error = %q", res.Error)
	}
	if sess.lastUsername != "somebot" || sess.lastStart != "ref42" {
		t.Errorf("StartBot(%q, %q), want (somebot, ref42)", sess.lastUsername, sess.lastStart)
	}
}

func TestAccountSetupExecutorRequiresProfile(t *testing.T) {
	sess := &fakeSession{}
	e := &AccountSetupExecutor{}

	res := e.Execute(context.Background(), sess, taskWith(domain.ActionAccountSetup, domain.TaskPayload{}))
	if res.OK {
		t.Fatal("OK = true without profile, want false")
	}

	res = e.Execute(context.Background(), sess, taskWith(domain.ActionAccountSetup, domain.TaskPayload{
		Profile: &domain.ProfileUpdate{FirstName: "Ann"},
	}))
	if !res.OK {
		t.Fatalf("OK = false, error = %q", res.Error)
	}
}

func TestCapabilityErrorsFlattened(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"peer not found", session.ErrPeerNotFound, "peer not found"},
		{"story not found", session.ErrStoryNotFound, "story not found"},
		{"flood wait", session.ErrFloodWait, "flood wait"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := &fakeSession{err: tt.err}
			e := &SubscribeExecutor{}

			res := e.Execute(context.Background(), sess, taskWith(domain.ActionSubscribe, domain.TaskPayload{
				Link: "https://t.me/somechannel",
			}))

			if res.OK {
				t.Fatal("OK = true, want false")
			}
			if res.State != domain.StateDone {
				t.Errorf("State = %q, want done", res.State)
			}
			if res.Error != tt.want {
				t.Errorf("Error = %q, want %q", res.Error, tt.want)
			}
		})
	}
}

func TestNeedsSession(t *testing.T) {
	r := NewRegistry(nil)

	for _, action := range domain.Actions {
		e, err := r.Get(action)
		if err != nil {
			t.Fatalf("Get(%s) = %v", action, err)
		}

		want := action != domain.ActionProviderSubmit
		if e.NeedsSession() != want {
			t.Errorf("NeedsSession(%s) = %v, want %v", action, e.NeedsSession(), want)
		}
	}
}
