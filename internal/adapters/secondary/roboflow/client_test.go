package roboflow

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfdetr-toolkit/internal/config"
	"rfdetr-toolkit/internal/core/domain"
	output "rfdetr-toolkit/internal/core/ports/output"
	"rfdetr-toolkit/internal/testutil"
)

const testKey = "rf_test_key"

func setup(t *testing.T) (*testutil.FakePlatform, *Client) {
	t.Helper()
	fake := testutil.NewFakePlatform(testKey)
	t.Cleanup(fake.Close)
	cfg := fake.Config()
	return fake, NewClient(&cfg, testKey)
}

func TestClient_CreateProject(t *testing.T) {
	fake, client := setup(t)

	ref, err := client.CreateProject(context.Background(), domain.ProjectSpec{
		Workspace: "ws", Name: "Football Players", Type: "object-detection", License: "MIT", Annotation: "players",
	})
	require.NoError(t, err)
	assert.Equal(t, "ws/football-players", ref.ID)
	assert.Equal(t, "football-players", ref.Slug())
	assert.Equal(t, "ws", ref.Workspace)

	p, ok := fake.Project("football-players")
	require.True(t, ok)
	assert.Equal(t, "MIT", p.License)
	assert.Equal(t, "players", p.Annotation)
}

func TestClient_CreateProjectTwiceCreatesTwo(t *testing.T) {
	fake, client := setup(t)
	spec := domain.ProjectSpec{Workspace: "ws", Name: "p", Type: "object-detection", License: "MIT"}

	first, err := client.CreateProject(context.Background(), spec)
	require.NoError(t, err)
	second, err := client.CreateProject(context.Background(), spec)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, fake.Projects(), 2)
}

func TestClient_BadKeyIsAPIError(t *testing.T) {
	fake, _ := setup(t)
	cfg := fake.Config()
	client := NewClient(&cfg, "wrong-key")

	_, err := client.CreateProject(context.Background(), domain.ProjectSpec{Workspace: "ws", Name: "p"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRemote)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Contains(t, apiErr.Message, "API key does not exist")
	assert.NotEmpty(t, apiErr.RequestID)
	assert.NotContains(t, err.Error(), "wrong-key")
}

func TestClient_RequestIDsAreUnique(t *testing.T) {
	fake, client := setup(t)
	fake.AddProject("ws", "p", 1)
	ref, _ := domain.NewVersionRef("ws", "p", 1)

	for i := 0; i < 3; i++ {
		_, err := client.GetVersion(context.Background(), ref)
		require.NoError(t, err)
	}

	ids := fake.RequestIDs()
	require.Len(t, ids, 3)
	assert.NotEqual(t, ids[0], ids[1])
	assert.NotEqual(t, ids[1], ids[2])
	for _, id := range ids {
		assert.NotEmpty(t, id)
	}
}

func TestClient_UploadImageAndAnnotation(t *testing.T) {
	fake, client := setup(t)
	fake.AddProject("ws", "p", 0)

	dir := t.TempDir()
	path := filepath.Join(dir, "frame.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg"), 0o644))
	img := domain.DatasetImage{Path: path, Split: domain.SplitValid, AnnotationName: "_annotations.coco.json", Annotation: []byte(`{"images":[]}`)}

	up, err := client.UploadImage(context.Background(), "p", img)
	require.NoError(t, err)
	assert.NotEmpty(t, up.ID)
	assert.False(t, up.Duplicate)

	require.NoError(t, client.UploadAnnotation(context.Background(), "p", up.ID, img))

	p, _ := fake.Project("p")
	assert.Equal(t, "valid", p.Images[up.ID])
	assert.Equal(t, `{"images":[]}`, p.Annotations[up.ID])

	err = client.UploadAnnotation(context.Background(), "p", "unknown", img)
	assert.ErrorIs(t, err, domain.ErrRemote)
}

func TestClient_GenerateAndGetVersion(t *testing.T) {
	fake, client := setup(t)
	fake.GeneratePolls = 1
	fake.AddProject("ws", "p", 0)

	n, err := client.GenerateVersion(context.Background(), domain.ProjectRef{Workspace: "ws", ID: "p"}, domain.DefaultVersionSettings())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	p, _ := fake.Project("p")
	assert.Contains(t, p.Versions[0].Settings, `"auto-orient":true`)
	assert.Contains(t, p.Versions[0].Settings, `"Stretch to"`)

	ref := domain.VersionRef{Project: domain.ProjectRef{Workspace: "ws", ID: "ws/p"}, Number: n}
	status, err := client.GetVersion(context.Background(), ref)
	require.NoError(t, err)
	assert.True(t, status.Generating)

	status, err = client.GetVersion(context.Background(), ref)
	require.NoError(t, err)
	assert.True(t, status.Ready())
}

func TestClient_GetVersionNotFound(t *testing.T) {
	_, client := setup(t)
	ref, _ := domain.NewVersionRef("ws", "missing", 1)

	_, err := client.GetVersion(context.Background(), ref)
	assert.True(t, IsStatus(err, http.StatusNotFound))
}

func TestClient_DeployWeights(t *testing.T) {
	fake, client := setup(t)
	fake.AddProject("ws", "p", 1)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "checkpoint.pth"), []byte("weights"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "class_names.txt"), []byte("ball\nplayer\n"), 0o644))
	ref, _ := domain.NewVersionRef("ws", "p", 1)

	err := client.DeployWeights(context.Background(), ref, "rfdetr-base", domain.Checkpoint{Dir: dir, Name: "checkpoint.pth"})
	require.NoError(t, err)

	p, _ := fake.Project("p")
	v := p.Versions[0]
	assert.Equal(t, "rfdetr-base", v.ModelType)

	tr := tar.NewReader(bytes.NewReader(v.Deployed))
	var names []string
	for {
		hdr, err := tr.Next()
		if err != nil {
			break
		}
		names = append(names, hdr.Name)
	}
	assert.Equal(t, []string{"checkpoint.pth", "class_names.txt"}, names)
}

func TestClient_DeployWeightsMissingCheckpoint(t *testing.T) {
	fake, client := setup(t)
	ref, _ := domain.NewVersionRef("ws", "p", 1)

	err := client.DeployWeights(context.Background(), ref, "rfdetr-base", domain.Checkpoint{Dir: t.TempDir(), Name: "x.pth"})
	assert.ErrorIs(t, err, domain.ErrCheckpointNotFound)
	assert.Zero(t, fake.Requests())
}

func TestClient_ExportAndDownload(t *testing.T) {
	fake, client := setup(t)
	fake.ExportPolls = 1
	fake.ExportArchive = []byte("PK\x03\x04zip")
	fake.AddProject("ws", "p", 2)
	ref, _ := domain.NewVersionRef("ws", "p", 2)

	status, err := client.ExportVersion(context.Background(), ref, "coco")
	require.NoError(t, err)
	assert.False(t, status.Ready())
	assert.Equal(t, 0.5, status.Progress)

	status, err = client.ExportVersion(context.Background(), ref, "coco")
	require.NoError(t, err)
	require.True(t, status.Ready())

	var buf bytes.Buffer
	require.NoError(t, client.DownloadExport(context.Background(), status.Link, &buf))
	assert.Equal(t, fake.ExportArchive, buf.Bytes())
}

func TestClient_Predict(t *testing.T) {
	fake, client := setup(t)
	fake.AddProject("ws", "p", 1)
	fake.Predictions = `{"predictions":[{"x":10,"y":20,"width":5,"height":6,"class":"player","class_id":2,"confidence":0.91,"detection_id":"d1"}],"image":{"width":"1280","height":720},"time":0.25}`
	ref, _ := domain.NewVersionRef("ws", "p", 1)

	pred, err := client.Predict(context.Background(), ref, output.PredictOptions{ImageURL: "https://example.com/a.jpg", Confidence: 0.5})
	require.NoError(t, err)
	assert.True(t, pred.HasDetections)
	require.Len(t, pred.Detections, 1)
	assert.Equal(t, "player", pred.Detections[0].Class)
	assert.Equal(t, 2, pred.Detections[0].ClassID)
	assert.Equal(t, 1280, pred.ImageWidth)
	assert.Equal(t, 720, pred.ImageHeight)
	assert.NotEmpty(t, pred.Raw)
}

func TestClient_PredictWithoutPredictionsKey(t *testing.T) {
	fake, client := setup(t)
	fake.AddProject("ws", "p", 1)
	fake.Predictions = `{"message":"model is still loading"}`
	ref, _ := domain.NewVersionRef("ws", "p", 1)

	pred, err := client.Predict(context.Background(), ref, output.PredictOptions{ImageURL: "https://example.com/a.jpg"})
	require.NoError(t, err)
	assert.False(t, pred.HasDetections)
	assert.Equal(t, fake.Predictions, string(pred.Raw))
}

func TestClient_PredictQueryParameters(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		_, _ = w.Write([]byte(`{"predictions":[]}`))
	}))
	defer srv.Close()

	client := NewClient(&config.PlatformConfig{APIURL: srv.URL, InferenceURL: srv.URL}, testKey)
	ref, _ := domain.NewVersionRef("ws", "p", 3)
	_, err := client.Predict(context.Background(), ref, output.PredictOptions{ImageURL: "https://x/y.jpg", Confidence: 0.5, Overlap: 0.3})
	require.NoError(t, err)

	assert.Equal(t, "/p/3", got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "50", q.Get("confidence"))
	assert.Equal(t, "30", q.Get("overlap"))
	assert.Equal(t, "https://x/y.jpg", q.Get("image"))
	assert.Equal(t, testKey, q.Get("api_key"))
}

func TestClient_MalformedResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/projects"):
			_, _ = w.Write([]byte(`{"name":"p"}`))
		case strings.HasSuffix(r.URL.Path, "/generate"):
			_, _ = w.Write([]byte(`{}`))
		default:
			_, _ = w.Write([]byte(`not json`))
		}
	}))
	defer srv.Close()

	client := NewClient(&config.PlatformConfig{APIURL: srv.URL, InferenceURL: srv.URL}, testKey)
	ctx := context.Background()

	_, err := client.CreateProject(ctx, domain.ProjectSpec{Workspace: "ws", Name: "p"})
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)

	_, err = client.GenerateVersion(ctx, domain.ProjectRef{Workspace: "ws", ID: "p"}, domain.DefaultVersionSettings())
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)

	ref, _ := domain.NewVersionRef("ws", "p", 1)
	_, err = client.GetVersion(ctx, ref)
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
	assert.NotContains(t, err.Error(), testKey)
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "flat", errorMessage([]byte(`{"error":"flat"}`)))
	assert.Equal(t, "nested", errorMessage([]byte(`{"error":{"message":"nested"}}`)))
	assert.Equal(t, "top", errorMessage([]byte(`{"message":"top"}`)))
	assert.Equal(t, "plain text", errorMessage([]byte("plain text")))
}
