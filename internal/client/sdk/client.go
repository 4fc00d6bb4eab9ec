// Package sdk is the thin application-facing facade (§6.3): one
// method per user action, each building the matching event via
// internal/events' builders and handing it to the sync engine's
// queue-and-try path. None of it touches the store directly.
package sdk

import (
	"context"
	"time"

	"github.com/studybuddy/eventcore/internal/client/syncengine"
	"github.com/studybuddy/eventcore/internal/events"
)

// Client wraps a syncengine.Engine with per-action convenience
// methods. userID/deviceID are fixed for the client's lifetime, the
// way one device belongs to one signed-in user.
type Client struct {
	userID   string
	deviceID string
	engine   *syncengine.Engine
	now      func() time.Time
}

func New(userID, deviceID string, engine *syncengine.Engine) *Client {
	return &Client{userID: userID, deviceID: deviceID, engine: engine, now: time.Now}
}

func (c *Client) queue(ctx context.Context, e events.Event, err error) error {
	if err != nil {
		return err
	}
	return c.engine.QueueEvent(ctx, e)
}

func (c *Client) ReviewCard(ctx context.Context, libraryID, cardID string, p events.CardReviewedPayload) error {
	e, err := events.NewCardReviewed(c.userID, libraryID, c.deviceID, cardID, c.now(), p)
	return c.queue(ctx, e, err)
}

func (c *Client) AttemptQuestion(ctx context.Context, libraryID, questionID string, p events.QuestionAttemptedPayload) error {
	e, err := events.NewQuestionAttempted(c.userID, libraryID, c.deviceID, questionID, c.now(), p)
	return c.queue(ctx, e, err)
}

func (c *Client) ReviewRelationship(ctx context.Context, libraryID, relationshipCardID string, p events.RelationshipReviewedPayload) error {
	e, err := events.NewRelationshipReviewed(c.userID, libraryID, c.deviceID, relationshipCardID, c.now(), p)
	return c.queue(ctx, e, err)
}

func (c *Client) ProbeMisconception(ctx context.Context, libraryID, misconceptionEdgeID string, p events.MisconceptionProbeResultPayload) error {
	e, err := events.NewMisconceptionProbeResult(c.userID, libraryID, c.deviceID, misconceptionEdgeID, c.now(), p)
	return c.queue(ctx, e, err)
}

func (c *Client) StartSession(ctx context.Context, libraryID, sessionID string, p events.SessionStartedPayload) error {
	e, err := events.NewSessionStarted(c.userID, libraryID, c.deviceID, sessionID, c.now(), p)
	return c.queue(ctx, e, err)
}

func (c *Client) EndSession(ctx context.Context, libraryID, sessionID string, p events.SessionEndedPayload) error {
	e, err := events.NewSessionEnded(c.userID, libraryID, c.deviceID, sessionID, c.now(), p)
	return c.queue(ctx, e, err)
}

func (c *Client) ApplyAcceleration(ctx context.Context, libraryID, cardID string, p events.AccelerationAppliedPayload) error {
	e, err := events.NewAccelerationApplied(c.userID, libraryID, c.deviceID, cardID, c.now(), p)
	return c.queue(ctx, e, err)
}

func (c *Client) ApplyLapse(ctx context.Context, libraryID, cardID string, p events.LapseAppliedPayload) error {
	e, err := events.NewLapseApplied(c.userID, libraryID, c.deviceID, cardID, c.now(), p)
	return c.queue(ctx, e, err)
}

func (c *Client) StartMasteryCertification(ctx context.Context, libraryID, conceptID string, p events.MasteryCertificationStartedPayload) error {
	e, err := events.NewMasteryCertificationStarted(c.userID, libraryID, c.deviceID, conceptID, c.now(), p)
	return c.queue(ctx, e, err)
}

func (c *Client) CertifyMastery(ctx context.Context, libraryID, conceptID string, p events.MasteryCertificationCompletedPayload) error {
	e, err := events.NewMasteryCertificationCompleted(c.userID, libraryID, c.deviceID, conceptID, c.now(), p)
	return c.queue(ctx, e, err)
}

func (c *Client) AnnotateCard(ctx context.Context, libraryID, cardID string, p events.CardAnnotationUpdatedPayload) error {
	e, err := events.NewCardAnnotationUpdated(c.userID, libraryID, c.deviceID, cardID, c.now(), p)
	return c.queue(ctx, e, err)
}

func (c *Client) FlagContent(ctx context.Context, libraryID string, entity events.Entity, p events.ContentFlaggedPayload) error {
	e, err := events.NewContentFlagged(c.userID, libraryID, c.deviceID, entity, c.now(), p)
	return c.queue(ctx, e, err)
}

func (c *Client) RespondToIntervention(ctx context.Context, libraryID string, entity events.Entity, accepted bool, acceptedPayload events.InterventionAcceptedPayload, rejectedPayload events.InterventionRejectedPayload) error {
	if accepted {
		e, err := events.NewInterventionAccepted(c.userID, libraryID, c.deviceID, entity, c.now(), acceptedPayload)
		return c.queue(ctx, e, err)
	}
	e, err := events.NewInterventionRejected(c.userID, libraryID, c.deviceID, entity, c.now(), rejectedPayload)
	return c.queue(ctx, e, err)
}

func (c *Client) ApplyLibraryIDMap(ctx context.Context, libraryID, libraryVersionID string, p events.LibraryIDMapAppliedPayload) error {
	e, err := events.NewLibraryIDMapApplied(c.userID, libraryID, c.deviceID, libraryVersionID, c.now(), p)
	return c.queue(ctx, e, err)
}
