package sc

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// fakeSC is an in-memory stand-in for a SecurityCenter instance. It speaks
// the response envelope and just enough of the alert endpoints for the
// client tests.
type fakeSC struct {
	nextID    int
	alerts    map[int]Record
	alertHits int
	lastToken string
}

func newFakeSC(t *testing.T) (*fakeSC, *Client) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fakeSC{nextID: 1, alerts: map[int]Record{}}

	r := gin.New()
	rest := r.Group("/rest")
	rest.POST("/token", f.handleLogin)

	alert := rest.Group("/alert")
	alert.Use(func(c *gin.Context) {
		f.alertHits++
		f.lastToken = c.GetHeader("X-SecurityCenter")
	})
	alert.GET("", f.handleList)
	alert.POST("", f.handleCreate)
	alert.GET("/:id", f.handleDetails)
	alert.PATCH("/:id", f.handleUpdate)
	alert.DELETE("/:id", f.handleDelete)
	alert.POST("/:id/execute", f.handleExecute)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{URL: srv.URL})
	require.NoError(t, err)
	return f, client
}

func respond(c *gin.Context, v interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"type":       "regular",
		"response":   v,
		"error_code": 0,
		"error_msg":  "",
	})
}

func respondError(c *gin.Context, status, code int, msg string) {
	c.JSON(status, gin.H{
		"type":       "regular",
		"response":   []interface{}{},
		"error_code": code,
		"error_msg":  msg,
	})
}

func (f *fakeSC) handleLogin(c *gin.Context) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BindJSON(&creds); err != nil || creds.Password == "" {
		respondError(c, http.StatusForbidden, 74, "Invalid login credentials.")
		return
	}
	respond(c, gin.H{"token": 1048576})
}

func (f *fakeSC) alertByParam(c *gin.Context) (int, Record, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err == nil {
		if alert, ok := f.alerts[id]; ok {
			return id, alert, true
		}
	}
	respondError(c, http.StatusNotFound, 146, "The requested alert does not exist.")
	return 0, nil, false
}

func project(alert Record, fields string) Record {
	if fields == "" {
		return alert
	}
	out := Record{}
	for _, field := range strings.Split(fields, ",") {
		if v, ok := alert[field]; ok {
			out[field] = v
		}
	}
	return out
}

func (f *fakeSC) handleList(c *gin.Context) {
	out := make([]Record, 0, len(f.alerts))
	for _, alert := range f.alerts {
		out = append(out, project(alert, c.Query("fields")))
	}
	respond(c, out)
}

func (f *fakeSC) handleCreate(c *gin.Context) {
	var doc Record
	if err := c.BindJSON(&doc); err != nil {
		respondError(c, http.StatusBadRequest, 13, "Invalid alert document.")
		return
	}
	doc["id"] = f.nextID
	f.alerts[f.nextID] = doc
	f.nextID++
	respond(c, doc)
}

func (f *fakeSC) handleDetails(c *gin.Context) {
	if _, alert, ok := f.alertByParam(c); ok {
		respond(c, project(alert, c.Query("fields")))
	}
}

func (f *fakeSC) handleUpdate(c *gin.Context) {
	id, alert, ok := f.alertByParam(c)
	if !ok {
		return
	}
	var doc Record
	if err := c.BindJSON(&doc); err != nil {
		respondError(c, http.StatusBadRequest, 13, "Invalid alert document.")
		return
	}
	for k, v := range doc {
		alert[k] = v
	}
	f.alerts[id] = alert
	respond(c, alert)
}

func (f *fakeSC) handleDelete(c *gin.Context) {
	id, _, ok := f.alertByParam(c)
	if !ok {
		return
	}
	delete(f.alerts, id)
	respond(c, "")
}

func (f *fakeSC) handleExecute(c *gin.Context) {
	if _, alert, ok := f.alertByParam(c); ok {
		respond(c, alert)
	}
}
