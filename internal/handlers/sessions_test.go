package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"configurator-backend/internal/configurator"
)

func TestHandleSessions_Create(t *testing.T) {
	env := newTestEnv(t)
	h := testMux(env)

	st := createSession(t, h, "gardenroom")
	assert.NotEmpty(t, st.ID)
	assert.Equal(t, "gardenroom", st.Product)
	assert.Equal(t, 49950.0, st.Price.Total)
	assert.Equal(t, configurator.StepDesign, st.Navigation.Step)
	assert.Equal(t, configurator.ViewExterior, st.Navigation.View)
	assert.Equal(t, "/img/gardenroom/base_exterior.png", st.BaseView)
	assert.Equal(t, 1, env.Sessions.Len())

	rec := do(t, h, http.MethodPost, "/api/sessions", createSessionRequest{Product: "spaceship"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/sessions", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleSession_SelectAppliesRules(t *testing.T) {
	h := testMux(newTestEnv(t))
	st := createSession(t, h, "gardenroom")
	base := "/api/sessions/" + st.ID

	rec := do(t, h, http.MethodPost, base+"/select", selectRequest{Component: "facade", Option: "facade_keralit_white"})
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeState(t, rec)

	assert.True(t, got.Changed)
	assert.True(t, got.Visibility.ComponentVisible("edge_trim"))
	assert.Equal(t, []string{"trim_keralit_white"}, got.Selection.Selection["edge_trim"])
	assert.False(t, got.Visibility.OptionVisible("edge_trim", "trim_brick_red"))
	assert.Equal(t, 1350.0+180.0, got.Price.Exterior)

	// неизвестная опция: no-op
	rec = do(t, h, http.MethodPost, base+"/select", selectRequest{Component: "facade", Option: "facade_gold"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeState(t, rec).Changed)

	rec = do(t, h, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"facade_keralit_white"}, decodeState(t, rec).Selection.Selection["facade"])
}

func TestHandleSession_DimensionsAndAncillary(t *testing.T) {
	h := testMux(newTestEnv(t))
	st := createSession(t, h, "gardenroom")
	base := "/api/sessions/" + st.ID

	rec := do(t, h, http.MethodPost, base+"/dimensions", dimensionRequest{Axis: configurator.AxisLength, Value: 500})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 54945.0, decodeState(t, rec).Price.Base)

	rec = do(t, h, http.MethodPost, base+"/dimensions", dimensionRequest{Axis: configurator.AxisDepth, Value: 100})
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeState(t, rec)
	require.Len(t, got.Issues, 1)
	assert.Equal(t, configurator.AxisDepth, got.Issues[0].Axis)

	rec = do(t, h, http.MethodPost, base+"/dimensions", dimensionRequest{Axis: "height", Value: 100})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, base+"/ancillary", ancillaryRequest{Key: "rear_access", Enabled: true})
	require.Equal(t, http.StatusOK, rec.Code)
	got = decodeState(t, rec)
	assert.True(t, got.Changed)
	assert.Equal(t, 450.0, got.Price.Exterior)
}

func TestHandleSession_Navigation(t *testing.T) {
	h := testMux(newTestEnv(t))
	st := createSession(t, h, "gardenroom")
	base := "/api/sessions/" + st.ID

	rec := do(t, h, http.MethodPost, base+"/view", viewRequest{View: configurator.ViewInterior})
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeState(t, rec)
	assert.Equal(t, configurator.ViewInterior, got.Navigation.View)
	assert.Equal(t, "/img/gardenroom/base_interior.png", got.BaseView)

	rec = do(t, h, http.MethodPost, base+"/advance", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got = decodeState(t, rec)
	assert.Equal(t, configurator.StepLocation, got.Navigation.Step)
	assert.NotEmpty(t, got.Summary)

	rec = do(t, h, http.MethodPost, base+"/postcode", postcodeRequest{Postcode: "12AB34"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodPost, base+"/advance", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	got = decodeState(t, rec)
	assert.Equal(t, configurator.StepLocation, got.Navigation.Step)
	assert.True(t, got.Navigation.PostcodeError)
	assert.NotEmpty(t, got.Error)

	do(t, h, http.MethodPost, base+"/postcode", postcodeRequest{Postcode: "1234 ab"})
	rec = do(t, h, http.MethodPost, base+"/advance", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, configurator.StepContact, decodeState(t, rec).Navigation.Step)

	rec = do(t, h, http.MethodPost, base+"/retreat", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, configurator.StepLocation, decodeState(t, rec).Navigation.Step)
}

func TestHandleSession_NotFound(t *testing.T) {
	h := testMux(newTestEnv(t))
	st := createSession(t, h, "veranda")

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/sessions/nope", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/api/sessions/"+st.ID+"/fly", nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodGet, "/api/sessions/"+st.ID+"/select", nil).Code)
}

func TestHandleSession_PostcodeDistanceIsDebounced(t *testing.T) {
	env := newTestEnv(t)
	geo := &fakeResolver{km: map[string]float64{"1234AB": 80}}
	env.Geocoder = geo
	h := testMux(env)

	st := createSession(t, h, "gardenroom")
	base := "/api/sessions/" + st.ID

	// быстрый ввод: запрос только по последнему индексу
	for _, pc := range []string{"1", "12", "123", "1234", "1234A", "1234AB"} {
		rec := do(t, h, http.MethodPost, base+"/postcode", postcodeRequest{Postcode: pc})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	assert.Eventually(t, func() bool {
		rec := do(t, h, http.MethodGet, base, nil)
		return decodeState(t, rec).Selection.HasDistance
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, []string{"1234AB"}, geo.Calls())

	got := decodeState(t, do(t, h, http.MethodGet, base, nil))
	assert.Equal(t, 80.0, got.Selection.DistanceKm)
	require.NotEmpty(t, got.Price.Surcharges)
	assert.Equal(t, "transport", got.Price.Surcharges[len(got.Price.Surcharges)-1].Key)
	assert.Equal(t, 90.0, got.Price.Exterior)

	// новый индекс сбрасывает доставку до следующего ответа геокодера
	got = decodeState(t, do(t, h, http.MethodPost, base+"/postcode", postcodeRequest{Postcode: "9999ZZ"}))
	assert.False(t, got.Selection.HasDistance)
	assert.Equal(t, 0.0, got.Price.Exterior)
}

func TestHandleSession_InvalidPostcodeSkipsLookup(t *testing.T) {
	env := newTestEnv(t)
	geo := &fakeResolver{}
	env.Geocoder = geo
	h := testMux(env)

	st := createSession(t, h, "gardenroom")
	do(t, h, http.MethodPost, "/api/sessions/"+st.ID+"/postcode", postcodeRequest{Postcode: "0123AB"})

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, geo.Calls())
}

// flakyResolver отказывает на первый запрос и отвечает на следующие.
type flakyResolver struct {
	fakeResolver
	failed bool
}

func (f *flakyResolver) DistanceKm(ctx context.Context, postcode string) (float64, error) {
	km, err := f.fakeResolver.DistanceKm(ctx, postcode)
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.failed {
		f.failed = true
		return 0, errors.New("upstream unavailable")
	}
	return km, err
}

func TestHandleSession_SamePostcodeRetriesFailedLookup(t *testing.T) {
	env := newTestEnv(t)
	geo := &flakyResolver{fakeResolver: fakeResolver{km: map[string]float64{"1234AB": 80}}}
	env.Geocoder = geo
	h := testMux(env)

	st := createSession(t, h, "gardenroom")
	base := "/api/sessions/" + st.ID

	do(t, h, http.MethodPost, base+"/postcode", postcodeRequest{Postcode: "1234AB"})
	require.Eventually(t, func() bool { return len(geo.Calls()) == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.False(t, decodeState(t, do(t, h, http.MethodGet, base, nil)).Selection.HasDistance)

	rec := do(t, h, http.MethodPost, base+"/postcode", postcodeRequest{Postcode: "1234AB"})
	assert.False(t, decodeState(t, rec).Changed)

	assert.Eventually(t, func() bool {
		return decodeState(t, do(t, h, http.MethodGet, base, nil)).Selection.HasDistance
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"1234AB", "1234AB"}, geo.Calls())

	// расстояние уже есть: повторная отправка ничего не запрашивает
	do(t, h, http.MethodPost, base+"/postcode", postcodeRequest{Postcode: "1234AB"})
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, geo.Calls(), 2)
}

func TestHandleSession_ValidPostcodeClearsError(t *testing.T) {
	h := testMux(newTestEnv(t))
	st := createSession(t, h, "gardenroom")
	base := "/api/sessions/" + st.ID

	do(t, h, http.MethodPost, base+"/advance", nil)
	do(t, h, http.MethodPost, base+"/advance", nil)
	require.Equal(t, http.StatusUnprocessableEntity, do(t, h, http.MethodPost, base+"/advance", nil).Code)

	got := decodeState(t, do(t, h, http.MethodPost, base+"/postcode", postcodeRequest{Postcode: "1234AB"}))
	assert.False(t, got.Navigation.PostcodeError)
	assert.Equal(t, configurator.ViewExterior, got.Navigation.View)
	assert.Equal(t, "/img/gardenroom/base_exterior.png", got.BaseView)
}
