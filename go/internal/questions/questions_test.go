package questions

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/google/go-cmp/cmp"

	"github.com/mcdev12/proctor/go/internal/models"
	"github.com/mcdev12/proctor/go/internal/rpcutil"
)

func seed() []models.Question {
	return []models.Question{
		{ID: "q1", Title: "Two Sum", Difficulty: models.DifficultyEasy, Keywords: []string{"sum", "target"}},
		{ID: "q2", Title: "Reverse Linked List", Difficulty: models.DifficultyEasy, Keywords: []string{"node", "next"}},
	}
}

func TestApp_CRUD(t *testing.T) {
	ctx := context.Background()
	app := NewApp(NewRepository(seed()))

	created, err := app.CreateQuestion(ctx, "", QuestionInput{Title: "  Valid Parentheses ", Difficulty: models.DifficultyMedium})
	if err != nil {
		t.Fatalf("CreateQuestion() error = %v", err)
	}
	if created.ID == "" || created.Title != "Valid Parentheses" {
		t.Errorf("created = %+v", created)
	}

	list, err := app.ListQuestions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, q := range list {
		ids = append(ids, q.ID)
	}
	if diff := cmp.Diff([]string{"q1", "q2", created.ID}, ids); diff != "" {
		t.Errorf("ListQuestions() order mismatch (-want +got):\n%s", diff)
	}

	updated, err := app.UpdateQuestion(ctx, "q1", QuestionInput{Title: "Two Sum II", Difficulty: models.DifficultyHard})
	if err != nil || updated.Title != "Two Sum II" {
		t.Fatalf("UpdateQuestion() = %+v, %v", updated, err)
	}

	if err := app.DeleteQuestion(ctx, "q2"); err != nil {
		t.Fatalf("DeleteQuestion() error = %v", err)
	}
	if _, err := app.GetQuestion(ctx, "q2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetQuestion() after delete error = %v, want ErrNotFound", err)
	}
}

func TestApp_Validation(t *testing.T) {
	app := NewApp(NewRepository(seed()))
	tests := []struct {
		name string
		in   QuestionInput
	}{
		{"empty title", QuestionInput{Difficulty: models.DifficultyEasy}},
		{"bad difficulty", QuestionInput{Title: "x", Difficulty: "Impossible"}},
		{"negative limit", QuestionInput{Title: "x", Difficulty: models.DifficultyEasy, TimeLimit: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := app.CreateQuestion(context.Background(), "", tt.in); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("CreateQuestion() error = %v, want ErrInvalidInput", err)
			}
		})
	}
	if _, err := app.CreateQuestion(context.Background(), "q1", QuestionInput{Title: "dup", Difficulty: models.DifficultyEasy}); !errors.Is(err, ErrExists) {
		t.Errorf("duplicate id error = %v, want ErrExists", err)
	}
}

func TestRepository_ReturnsCopies(t *testing.T) {
	repo := NewRepository(seed())
	q, _ := repo.GetQuestion(context.Background(), "q1")
	q.Keywords[0] = "mutated"
	again, _ := repo.GetQuestion(context.Background(), "q1")
	if again.Keywords[0] != "sum" {
		t.Error("callers must not be able to mutate stored questions")
	}
}

func TestApp_RandomQuestionID(t *testing.T) {
	app := NewApp(NewRepository(seed()))
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 20; i++ {
		id, err := app.RandomQuestionID(context.Background(), rng)
		if err != nil || (id != "q1" && id != "q2") {
			t.Fatalf("RandomQuestionID() = %q, %v", id, err)
		}
	}
	empty := NewApp(NewRepository(nil))
	if _, err := empty.RandomQuestionID(context.Background(), rng); !errors.Is(err, ErrEmptyBank) {
		t.Errorf("empty bank error = %v", err)
	}
}

func TestService_OverConnect(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle(NewHandler(NewService(NewApp(NewRepository(seed())))))
	server := httptest.NewServer(mux)
	defer server.Close()

	get := connect.NewClient[GetQuestionRequest, GetQuestionResponse](
		server.Client(), server.URL+"/"+ServiceName+"/Get", rpcutil.ClientOptions()...)

	res, err := get.CallUnary(context.Background(), connect.NewRequest(&GetQuestionRequest{ID: "q1"}))
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if res.Msg.Question.Title != "Two Sum" {
		t.Errorf("Title = %q", res.Msg.Question.Title)
	}

	_, err = get.CallUnary(context.Background(), connect.NewRequest(&GetQuestionRequest{ID: "nope"}))
	if connect.CodeOf(err) != connect.CodeNotFound {
		t.Errorf("missing question code = %v, want NotFound", connect.CodeOf(err))
	}
}
