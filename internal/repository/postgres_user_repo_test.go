package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

// 各Postgresリポジトリがインターフェースを満たすことを検証
func TestPostgresRepos_ImplementInterfaces(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
	var _ ProgramRepository = (*PostgresProgramRepo)(nil)
	var _ PlaceRepository = (*PostgresPlaceRepo)(nil)
	var _ TripRepository = (*PostgresTripRepo)(nil)
	var _ BookmarkRepository = (*PostgresBookmarkRepo)(nil)
	var _ MessageRepository = (*PostgresMessageRepo)(nil)
}

// 各コンストラクタが正しく初期化されることを検証
func TestNewPostgresRepos_Initialize(t *testing.T) {
	if NewPostgresUserRepo(nil) == nil {
		t.Fatal("expected non-nil user repo")
	}
	if NewPostgresProgramRepo(nil) == nil {
		t.Fatal("expected non-nil program repo")
	}
	if NewPostgresPlaceRepo(nil) == nil {
		t.Fatal("expected non-nil place repo")
	}
	if NewPostgresTripRepo(nil) == nil {
		t.Fatal("expected non-nil trip repo")
	}
	if NewPostgresBookmarkRepo(nil) == nil {
		t.Fatal("expected non-nil bookmark repo")
	}
	if NewPostgresMessageRepo(nil) == nil {
		t.Fatal("expected non-nil message repo")
	}
}

// isUniqueViolationが一意制約違反のみを検出することを検証
func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
		{name: "unique violation", err: &pq.Error{Code: "23505"}, want: true},
		{name: "wrapped unique violation", err: fmt.Errorf("insert: %w", &pq.Error{Code: "23505"}), want: true},
		{name: "foreign key violation", err: &pq.Error{Code: "23503"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueViolation(tt.err); got != tt.want {
				t.Errorf("isUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

// jsonbStringsがnilをNULLに、スライスをJSON文字列に変換することを検証
func TestJSONBStrings(t *testing.T) {
	v, err := jsonbStrings(nil)
	if err != nil {
		t.Fatalf("jsonbStrings(nil) error = %v", err)
	}
	if v != nil {
		t.Errorf("jsonbStrings(nil) = %v, want nil", v)
	}

	v, err = jsonbStrings([]string{"Computer Science", "Economics"})
	if err != nil {
		t.Fatalf("jsonbStrings() error = %v", err)
	}
	if v != `["Computer Science","Economics"]` {
		t.Errorf("jsonbStrings() = %v, want JSON array string", v)
	}

	// 空スライスはNULLではなく空配列として保存される
	v, err = jsonbStrings([]string{})
	if err != nil {
		t.Fatalf("jsonbStrings([]) error = %v", err)
	}
	if v != `[]` {
		t.Errorf("jsonbStrings([]) = %v, want empty JSON array", v)
	}
}
