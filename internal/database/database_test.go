package database

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestConnectRejectsUnknownDriver(t *testing.T) {
	_, err := Connect("mysql", "dsn")
	require.ErrorContains(t, err, "unsupported database driver")

	_, err = Connect("postgres", "")
	require.Error(t, err)
}

func TestConnectSQLiteInMemory(t *testing.T) {
	db, err := Connect("sqlite", "file:connect-test?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, db.Exec("SELECT 1").Error)
}

func TestConnectRedis(t *testing.T) {
	server := miniredis.RunT(t)

	client, err := ConnectRedis("redis://" + server.Addr())
	require.NoError(t, err)
	defer client.Close()

	_, err = ConnectRedis("")
	require.Error(t, err)
}
