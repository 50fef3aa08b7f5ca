package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamwsll/poker-score-release/internal/room"
)

func newAPIServer(t *testing.T) (*httptest.Server, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, router
}

func TestGetRoomInfo(t *testing.T) {
	srv, router := newAPIServer(t)

	var gotAuth string
	router.GET("/api/rooms/:room_id", func(c *gin.Context) {
		gotAuth = c.GetHeader("Authorization")
		c.JSON(http.StatusOK, gin.H{
			"code":    0,
			"message": "success",
			"data": gin.H{
				"room_id":       42,
				"room_code":     "ABCD12",
				"room_type":     "texas",
				"chip_rate":     "0.5",
				"status":        "active",
				"table_balance": 30,
				"my_balance":    100,
				"members": []gin.H{
					{"user_id": 1, "nickname": "Ann", "balance": 100, "status": "online"},
				},
			},
		})
	})

	client := NewClient(srv.URL, "token-1")
	snap, err := client.GetRoomInfo(context.Background(), 42)
	require.NoError(t, err)

	assert.Equal(t, "Bearer token-1", gotAuth)
	assert.Equal(t, int64(42), snap.RoomID)
	assert.Equal(t, room.RoomTypeTexas, snap.RoomType)
	assert.Equal(t, 30, snap.TableBalance)
	require.Len(t, snap.Members, 1)
	assert.Equal(t, "Ann", snap.Members[0].Nickname)
}

func TestGetRoomOperations(t *testing.T) {
	srv, router := newAPIServer(t)

	router.GET("/api/rooms/:room_id/operations", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"code":    0,
			"message": "success",
			"data": gin.H{
				"operations": []gin.H{
					{"id": 2, "user_id": 1, "nickname": "Ann", "operation_type": "bet",
						"amount": 50, "description": "bet 50 points", "created_at": "2025-01-02T15:04:05Z"},
					{"id": 1, "user_id": 1, "nickname": "Ann", "operation_type": "join",
						"description": "joined the room", "created_at": "2025-01-02T15:00:00Z"},
				},
				"total": 2,
			},
		})
	})

	client := NewClient(srv.URL, "token-1")
	ops, err := client.GetRoomOperations(context.Background(), 42)
	require.NoError(t, err)

	require.Len(t, ops, 2)
	assert.Equal(t, room.OpTypeBet, ops[0].Type)
	require.NotNil(t, ops[0].Amount)
	assert.Equal(t, 50, *ops[0].Amount)
	assert.Nil(t, ops[1].Amount)
}

func TestServerErrorCode(t *testing.T) {
	srv, router := newAPIServer(t)

	router.GET("/api/rooms/:room_id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"code": 1002, "message": "not in this room"})
	})

	client := NewClient(srv.URL, "token-1")
	_, err := client.GetRoomInfo(context.Background(), 42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in this room")
}

func TestHTTPStatusError(t *testing.T) {
	srv, router := newAPIServer(t)

	router.GET("/api/rooms/:room_id", func(c *gin.Context) {
		c.JSON(http.StatusUnauthorized, gin.H{"code": 401, "message": "unauthorized"})
	})

	client := NewClient(srv.URL, "bad-token")
	_, err := client.GetRoomInfo(context.Background(), 42)
	assert.Error(t, err)
}
