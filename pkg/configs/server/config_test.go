package server_test

import (
	"testing"

	kcs "github.com/atldata/igs/pkg/configs/server"
	"github.com/atldata/igs/pkg/utils/cmp"
)

func TestLoadServerConfig(t *testing.T) {

	t.Run("it can be created from a config file", func(t *testing.T) {
		result, err := kcs.LoadServerConfig("./testdata/config.yaml")

		if err != nil {
			t.Fatalf("failed to parse config.: %v", err)
		}
		if result.ServerPort != "13800" {
			t.Errorf("unmatch port:%s, expected:13800", result.ServerPort)
		}
		expectedURI := "postgres://igs-test-pgdb-svc:5432/igs"
		if result.DBURI != expectedURI {
			t.Errorf("unmatch database:%s, expected:%s", result.DBURI, expectedURI)
		}
		if result.LogLevel != "debug" {
			t.Errorf("unmatch logLevel:%s, expected:debug", result.LogLevel)
		}
		if !cmp.SliceEq(result.CORSOrigins, []string{"http://localhost:3000"}) {
			t.Errorf("unmatch corsOrigins:%v", result.CORSOrigins)
		}
		if result.AuthSecret != "test-secret" {
			t.Errorf("unmatch authSecret:%s", result.AuthSecret)
		}
		if result.BackupDir != "/var/lib/igs/backups" {
			t.Errorf("unmatch backupDir:%s", result.BackupDir)
		}
	})

	t.Run("fields absent from the file keep their defaults", func(t *testing.T) {
		result, err := kcs.Unmarshal([]byte(`authSecret: "only-this"`))

		if err != nil {
			t.Fatalf("failed to parse config.: %v", err)
		}
		if result.ServerPort != "8080" {
			t.Errorf("unmatch port:%s, expected:8080", result.ServerPort)
		}
		if result.DBURI != "./data/igs.db" {
			t.Errorf("unmatch database:%s", result.DBURI)
		}
		if result.LogLevel != "info" {
			t.Errorf("unmatch logLevel:%s", result.LogLevel)
		}
		if result.AuthSecret != "only-this" {
			t.Errorf("unmatch authSecret:%s", result.AuthSecret)
		}
	})
}
