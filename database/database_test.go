package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kkmt-store/config"
)

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t, "data.db?_foreign_keys=on", sqliteDSN("data.db"))
	assert.Equal(t, "file:x?mode=memory&_foreign_keys=on", sqliteDSN("file:x?mode=memory"))
	assert.Equal(t, "data.db?_fk=1", sqliteDSN("data.db?_fk=1"))
}

func TestConnectRejectsUnknownDriver(t *testing.T) {
	_, err := Connect(config.DatabaseConfig{Driver: "oracle", DSN: "x"}, nil)
	assert.Error(t, err)
}
