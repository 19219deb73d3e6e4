package converter

import (
	"testing"

	"github.com/amirasaad/fxconvert/pkg/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_Lifecycle(t *testing.T) {
	m := NewManager(staticAcquirer(usdEur()), newFakeStore(), quietLogger())
	defer m.Close()

	s, err := m.Create()
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())

	got, err := m.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)

	waitState(t, s, StateReady)

	require.NoError(t, m.Delete(s.ID()))
	assert.Equal(t, 0, m.Len())
	<-s.Done()

	_, err = m.Get(s.ID())
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, m.Delete(s.ID()), domain.ErrSessionNotFound)
}

func TestManager_UnknownSession(t *testing.T) {
	m := NewManager(staticAcquirer(nil), newFakeStore(), quietLogger())
	defer m.Close()

	_, err := m.Get(uuid.New())
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_CloseClosesSessions(t *testing.T) {
	m := NewManager(staticAcquirer(usdEur()), newFakeStore(), quietLogger())

	a, err := m.Create()
	require.NoError(t, err)
	b, err := m.Create()
	require.NoError(t, err)

	m.Close()
	<-a.Done()
	<-b.Done()
	assert.Equal(t, 0, m.Len())
}
