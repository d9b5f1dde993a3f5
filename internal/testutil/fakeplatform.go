package testutil

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"rfdetr-toolkit/internal/config"
)

const headerRequestID = "X-Request-ID"

// FakeProject is a project held by FakePlatform.
type FakeProject struct {
	Workspace   string
	Slug        string
	Name        string
	Type        string
	License     string
	Annotation  string
	Images      map[string]string // image id -> split
	Annotations map[string]string // image id -> annotation body
	Versions    []*FakeVersion
}

type FakeVersion struct {
	Number      int
	Settings    string
	PollsLeft   int
	Deployed    []byte
	ModelType   string
	ExportPolls int
}

// FakePlatform is an in-memory stand-in for the hosted platform API served
// with httptest.
type FakePlatform struct {
	Server *httptest.Server

	// APIKey is the only credential accepted.
	APIKey string
	// GeneratePolls is how many status reads report a new version as generating.
	GeneratePolls int
	// ExportPolls is how many export requests answer "not ready".
	ExportPolls int
	// ExportArchive is served as the export download.
	ExportArchive []byte
	// Predictions is the raw JSON body returned by hosted inference.
	Predictions string

	mu         sync.Mutex
	requests   int
	requestIDs []string
	projects   map[string]*FakeProject
	uploads    map[string]string // signed token -> project/version
}

func NewFakePlatform(apiKey string) *FakePlatform {
	gin.SetMode(gin.TestMode)
	f := &FakePlatform{
		APIKey:      apiKey,
		Predictions: `{"predictions":[],"image":{"width":640,"height":640},"time":0.05}`,
		projects:    make(map[string]*FakeProject),
		uploads:     make(map[string]string),
	}

	r := gin.New()
	r.Use(f.countRequests(), requestID(), requestLogging(), gin.Recovery())

	api := r.Group("/api")
	api.Use(f.requireAPIKey())
	api.POST("/:ws/projects", f.createProject)
	api.POST("/dataset/:project/upload", f.uploadImage)
	api.POST("/dataset/:project/annotate/:image", f.annotate)
	api.POST("/:ws/:project/generate", f.generateVersion)
	api.GET("/:ws/:project/:version", f.getVersion)
	api.GET("/:ws/:project/:version/:format", f.versionAction)

	infer := r.Group("/infer")
	infer.Use(f.requireAPIKey())
	infer.POST("/:project/:version", f.predict)

	r.PUT("/signed/:token", f.receiveWeights)
	r.GET("/files/export.zip", f.serveExport)

	f.Server = httptest.NewServer(r)
	return f
}

func (f *FakePlatform) Close() {
	f.Server.Close()
}

// Config returns platform settings that point at the fake.
func (f *FakePlatform) Config() config.PlatformConfig {
	return config.PlatformConfig{
		APIURL:       f.Server.URL + "/api",
		InferenceURL: f.Server.URL + "/infer",
		Timeout:      5 * time.Second,
	}
}

// Requests is the total number of HTTP requests received.
func (f *FakePlatform) Requests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests
}

func (f *FakePlatform) RequestIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requestIDs...)
}

// Projects returns a snapshot of all created projects keyed by "ws/slug".
func (f *FakePlatform) Projects() map[string]FakeProject {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]FakeProject, len(f.projects))
	for k, p := range f.projects {
		out[k] = *p
	}
	return out
}

// Project returns the project with the given slug in any workspace.
func (f *FakePlatform) Project(slug string) (*FakeProject, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.projects {
		if p.Slug == slug {
			cp := *p
			return &cp, true
		}
	}
	return nil, false
}

// AddProject registers an existing project version, for workflows that do
// not create one.
func (f *FakePlatform) AddProject(ws, slug string, versions int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &FakeProject{
		Workspace:   ws,
		Slug:        slug,
		Name:        slug,
		Images:      map[string]string{},
		Annotations: map[string]string{},
	}
	for i := 1; i <= versions; i++ {
		p.Versions = append(p.Versions, &FakeVersion{Number: i, ExportPolls: f.ExportPolls})
	}
	f.projects[ws+"/"+slug] = p
}

// ============================================================================
// Middleware
// ============================================================================

func (f *FakePlatform) countRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		f.mu.Lock()
		f.requests++
		f.requestIDs = append(f.requestIDs, c.GetHeader(headerRequestID))
		f.mu.Unlock()
		c.Next()
	}
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

func requestLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"latency_ms": time.Since(start).Milliseconds(),
			"request_id": c.GetString("request_id"),
		}).Debug("fake platform request")
	}
}

func (f *FakePlatform) requireAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Query("api_key") != f.APIKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "This API key does not exist (or has been revoked)."}})
			return
		}
		c.Next()
	}
}

// ============================================================================
// Handlers
// ============================================================================

func (f *FakePlatform) createProject(c *gin.Context) {
	var req struct {
		Name       string `json:"name"`
		Type       string `json:"type"`
		License    string `json:"license"`
		Annotation string `json:"annotation"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	ws := c.Param("ws")
	f.mu.Lock()
	defer f.mu.Unlock()

	// Like the real platform, a taken name gets a random suffix.
	slug := slugify(req.Name)
	if _, taken := f.projects[ws+"/"+slug]; taken {
		slug = slug + "-" + strings.ReplaceAll(uuid.New().String(), "-", "")[:5]
	}
	f.projects[ws+"/"+slug] = &FakeProject{
		Workspace:   ws,
		Slug:        slug,
		Name:        req.Name,
		Type:        req.Type,
		License:     req.License,
		Annotation:  req.Annotation,
		Images:      map[string]string{},
		Annotations: map[string]string{},
	}
	c.JSON(http.StatusOK, gin.H{"id": ws + "/" + slug, "name": req.Name, "type": req.Type})
}

func (f *FakePlatform) uploadImage(c *gin.Context) {
	if _, err := c.FormFile("file"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.projectBySlug(c.Param("project"))
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}
	id := uuid.New().String()
	p.Images[id] = c.Query("split")
	c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
}

func (f *FakePlatform) annotate(c *gin.Context) {
	body, _ := io.ReadAll(c.Request.Body)

	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.projectBySlug(c.Param("project"))
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}
	if _, ok := p.Images[c.Param("image")]; !ok {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "image not found"})
		return
	}
	p.Annotations[c.Param("image")] = string(body)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (f *FakePlatform) generateVersion(c *gin.Context) {
	body, _ := io.ReadAll(c.Request.Body)

	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.projects[c.Param("ws")+"/"+c.Param("project")]
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}
	v := &FakeVersion{
		Number:      len(p.Versions) + 1,
		Settings:    string(body),
		PollsLeft:   f.GeneratePolls,
		ExportPolls: f.ExportPolls,
	}
	p.Versions = append(p.Versions, v)
	c.JSON(http.StatusOK, gin.H{"version": strconv.Itoa(v.Number)})
}

func (f *FakePlatform) getVersion(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, v := f.lookupVersion(c)
	if v == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "version not found"})
		return
	}
	generating := v.PollsLeft > 0
	if generating {
		v.PollsLeft--
	}
	c.JSON(http.StatusOK, gin.H{"version": gin.H{
		"id":         fmt.Sprintf("%s/%s/%d", p.Workspace, p.Slug, v.Number),
		"generating": generating,
		"progress":   boolProgress(generating),
		"images":     len(p.Images),
	}})
}

// versionAction serves both uploadModel and dataset exports, which share a
// path shape.
func (f *FakePlatform) versionAction(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, v := f.lookupVersion(c)
	if v == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "version not found"})
		return
	}

	if c.Param("format") == "uploadModel" {
		token := uuid.New().String()
		f.uploads[token] = fmt.Sprintf("%s/%s/%d", p.Workspace, p.Slug, v.Number)
		v.ModelType = c.Query("modelType")
		c.JSON(http.StatusOK, gin.H{"url": f.Server.URL + "/signed/" + token})
		return
	}

	if v.ExportPolls > 0 {
		v.ExportPolls--
		c.JSON(http.StatusOK, gin.H{"ready": false, "progress": 0.5})
		return
	}
	c.JSON(http.StatusOK, gin.H{"export": gin.H{"link": f.Server.URL + "/files/export.zip", "format": c.Param("format")}})
}

func (f *FakePlatform) receiveWeights(c *gin.Context) {
	body, _ := io.ReadAll(c.Request.Body)

	f.mu.Lock()
	defer f.mu.Unlock()
	target, ok := f.uploads[c.Param("token")]
	if !ok {
		c.Status(http.StatusForbidden)
		return
	}
	parts := strings.Split(target, "/")
	p := f.projects[parts[0]+"/"+parts[1]]
	n, _ := strconv.Atoi(parts[2])
	p.Versions[n-1].Deployed = body
	c.Status(http.StatusOK)
}

func (f *FakePlatform) serveExport(c *gin.Context) {
	c.Data(http.StatusOK, "application/zip", f.ExportArchive)
}

func (f *FakePlatform) predict(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.projectBySlug(c.Param("project"))
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "model not found"})
		return
	}
	c.Data(http.StatusOK, "application/json", []byte(f.Predictions))
}

func (f *FakePlatform) projectBySlug(slug string) *FakeProject {
	for _, p := range f.projects {
		if p.Slug == slug {
			return p
		}
	}
	return nil
}

func (f *FakePlatform) lookupVersion(c *gin.Context) (*FakeProject, *FakeVersion) {
	p := f.projects[c.Param("ws")+"/"+c.Param("project")]
	if p == nil {
		return nil, nil
	}
	n, err := strconv.Atoi(c.Param("version"))
	if err != nil || n < 1 || n > len(p.Versions) {
		return p, nil
	}
	return p, p.Versions[n-1]
}

func slugify(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "-"))
}

func boolProgress(generating bool) float64 {
	if generating {
		return 0.5
	}
	return 1
}
