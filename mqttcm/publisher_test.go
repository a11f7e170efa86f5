package mqttcm

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/eclipse/paho.golang/paho"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.ntppool.org/common/config/depenv"

	"github.com/auraprotocol/diamond/diamond"
)

type fakeClient struct {
	mu   sync.Mutex
	msgs []*paho.Publish
	err  error
}

func (c *fakeClient) Publish(_ context.Context, p *paho.Publish) (*paho.PublishResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	c.msgs = append(c.msgs, p)
	return &paho.PublishResponse{}, nil
}

func (c *fakeClient) messages() []*paho.Publish {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.msgs)
}

func (c *fakeClient) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

func TestPublisherNotify(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{}
	topics := NewTopics(depenv.DeploymentEnvironmentFromString("devel"))

	owner := diamond.MustParseAddress("0x00000000000000000000000000000000000000ee")
	facet := diamond.MustParseAddress("0x00000000000000000000000000000000000000a1")

	d, err := diamond.Open(ctx, diamond.WithOwner(owner), diamond.WithNotifier(NewPublisher(client, topics)))
	require.NoError(t, err)

	_, err = d.SubmitCut(ctx, owner, diamond.Batch{Cuts: []diamond.FacetCut{{
		Action:    diamond.Add,
		Facet:     facet,
		Selectors: []diamond.Selector{diamond.SelectorFromSignature("pause()")},
	}}})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(client.messages()) == 1 }, 2*time.Second, 10*time.Millisecond)
	msg := client.messages()[0]
	assert.Equal(t, "/devel/diamond/cuts", msg.Topic)
	assert.Equal(t, byte(1), msg.QoS)
	assert.True(t, msg.Retain)

	var rec diamond.Record
	require.NoError(t, json.Unmarshal(msg.Payload, &rec))
	assert.Equal(t, uint64(1), rec.Seq)
	assert.Equal(t, diamond.RecordCut, rec.Kind)
	assert.Equal(t, facet, rec.Facets[0].Address)

	// publish failures don't undo the commit
	client.fail(errors.New("not connected"))
	_, err = d.TransferOwnership(ctx, owner, facet)
	require.NoError(t, err)
	assert.Equal(t, facet, d.Owner())

	d.Close()
	assert.Len(t, client.messages(), 1)
}

func TestStatusMessage(t *testing.T) {
	b, err := StatusMessageJSON(true)
	require.NoError(t, err)

	var sm StatusMessage
	require.NoError(t, json.Unmarshal(b, &sm))
	assert.True(t, sm.Online)
	assert.NotEmpty(t, sm.Version.Version)
}
