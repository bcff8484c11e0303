package app

import (
	"bytes"
	"testing"
)

// TestRun_MigrateCommand_FailsWithoutDB はmigrateコマンドがDB接続を試みることを検証する。
// テスト環境ではDB接続が失敗するため、エラーが返ることを期待する。
func TestRun_MigrateCommand_FailsWithoutDB(t *testing.T) {
	setTestEnv(t)

	var buf bytes.Buffer
	if err := Run(&buf, []string{"migrate"}); err == nil {
		t.Fatal("Run(migrate) without a reachable DB should return error")
	}
}

func TestRun_WithMissingEnv_ReturnsError(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("MAGIC_LINK_SECRET", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("APP_URL", "")

	var buf bytes.Buffer
	if err := Run(&buf, []string{"serve"}); err == nil {
		t.Fatal("Run with missing env should return error")
	}
}

// TestRun_HealthcheckCommand_FailsWithoutServer はhealthcheckコマンドが
// サーバー未起動時にエラーを返すことを検証する。
func TestRun_HealthcheckCommand_FailsWithoutServer(t *testing.T) {
	t.Setenv("SERVER_PORT", "1")

	var buf bytes.Buffer
	if err := Run(&buf, []string{"healthcheck"}); err == nil {
		t.Fatal("Run(healthcheck) without a running server should return error")
	}
}
