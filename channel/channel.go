/*
*	A messaging endpoint multiplexing concurrent calls and one-way
*	notifications over a single duplex byte stream. One endpoint owns
*	the stream for the lifetime of the connection: a writer goroutine
*	owns the sink, the Run loop owns the source, and every in-flight
*	inbound call runs in its own goroutine with a cancelable context.
 */
package channel

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/op/go-logging"

	"qi.dev/qi/format"
	"qi.dev/qi/message"
	"qi.dev/qi/types"
	"qi.dev/qi/value"
)

var ErrDispatchTerminated = fmt.Errorf("the endpoint dispatch is terminated")
var ErrCallCanceled = fmt.Errorf("the call was canceled by the remote")

// ErrCanceled is returned by cooperative handlers that observed their
// cancellation signal; the endpoint answers such calls with a
// Canceled message.
var ErrCanceled = fmt.Errorf("the call handler was canceled")

// RemoteError is the failure reported by the remote handler for one
// call.
type RemoteError struct {
	Description string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote error: %s", e.Description)
}

// FatalError wraps a handler failure that must terminate the whole
// endpoint instead of answering the one call.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal handler error: %s", e.Err.Error())
}

type RequestIdAlreadyExistsError struct {
	ID uint32
}

func (e *RequestIdAlreadyExistsError) Error() string {
	return fmt.Sprintf("request id %d is already in flight", e.ID)
}

// Notification is a one-way request delivered to the handler: posts,
// events, capability advertisements and cancellations.
type Notification struct {
	Kind    message.Kind
	Payload []byte
	CallID  uint32 //	cancellation target, for KindCancel
}

// Handler is the user-supplied inbound surface of an endpoint.
//
// Call runs in its own goroutine; it must watch ctx and return
// ErrCanceled (or the context error) once it observes cancellation.
// Returning a FatalError terminates the endpoint. FireAndForget must
// never fail visibly.
type Handler interface {
	Call(ctx context.Context, address message.Address, payload []byte) ([]byte, error)
	FireAndForget(address message.Address, notification Notification)
}

type response struct {
	kind        message.Kind
	payload     []byte
	description string
}

type Endpoint struct {
	handler Handler
	log     *logging.Logger

	stream   io.ReadWriter
	outgoing chan message.Message

	mu      sync.Mutex
	nextID  uint32
	ongoing map[uint32]chan response      //	client calls awaiting a response
	running map[uint32]context.CancelFunc //	inbound calls being handled

	done       chan struct{}
	closeOnce  sync.Once
	terminated error
}

func New(stream io.ReadWriter, handler Handler, log *logging.Logger) *Endpoint {
	return &Endpoint{
		handler:  handler,
		log:      log,
		stream:   stream,
		outgoing: make(chan message.Message, 1),
		nextID:   1,
		ongoing:  make(map[uint32]chan response),
		running:  make(map[uint32]context.CancelFunc),
		done:     make(chan struct{}),
	}
}

// Run drives the endpoint until the stream fails or closes. A clean
// close of the remote end returns nil; pending calls always resolve
// with ErrDispatchTerminated when Run returns.
func (ep *Endpoint) Run() (err error) {
	writerDone := make(chan error, 1)
	go ep.writer(writerDone)

	decoder := message.NewDecoder(ep.stream)
loop:
	for {
		var msg message.Message
		msg, err = decoder.Decode()
		if err != nil {
			if err == io.EOF {
				err = nil
			}
			break
		}
		select {
		case <-ep.done:
			break loop
		default:
		}
		ep.dispatch(msg)
	}
	ep.terminate(err)
	<-writerDone
	ep.mu.Lock()
	err = ep.terminated
	ep.mu.Unlock()
	if err == ErrDispatchTerminated {
		err = nil
	}
	return
}

// Terminate shuts the endpoint down. Pending calls resolve with
// ErrDispatchTerminated, and the stream is closed when it implements
// io.Closer.
func (ep *Endpoint) Terminate() {
	ep.terminate(nil)
}

func (ep *Endpoint) terminate(cause error) {
	ep.closeOnce.Do(func() {
		ep.mu.Lock()
		if cause != nil {
			ep.terminated = cause
		} else {
			ep.terminated = ErrDispatchTerminated
		}
		for id, cancel := range ep.running {
			cancel()
			delete(ep.running, id)
		}
		ep.mu.Unlock()
		close(ep.done)
		if closer, ok := ep.stream.(io.Closer); ok {
			_ = closer.Close()
		}
	})
}

func (ep *Endpoint) writer(done chan<- error) {
	encoder := message.NewEncoder(ep.stream)
	for {
		select {
		case msg := <-ep.outgoing:
			if err := encoder.Encode(msg); err != nil {
				ep.terminate(err)
				done <- err
				return
			}
		case <-ep.done:
			done <- nil
			return
		}
	}
}

func (ep *Endpoint) dispatch(msg message.Message) {
	switch msg.Kind {
	case message.KindCall:
		ep.dispatchCall(msg)
	case message.KindCancel:
		ep.dispatchCancel(msg)
	case message.KindPost, message.KindEvent, message.KindCapabilities:
		ep.handler.FireAndForget(msg.Address, Notification{Kind: msg.Kind, Payload: msg.Body})
	case message.KindReply, message.KindError, message.KindCanceled:
		ep.dispatchResponse(msg)
	}
}

func (ep *Endpoint) dispatchCall(msg message.Message) {
	ctx, cancel := context.WithCancel(context.Background())
	ep.mu.Lock()
	ep.running[msg.ID] = cancel
	ep.mu.Unlock()
	go ep.handleCall(ctx, cancel, msg)
}

func (ep *Endpoint) handleCall(ctx context.Context, cancel context.CancelFunc, msg message.Message) {
	defer cancel()
	payload, err := ep.handler.Call(ctx, msg.Address, msg.Body)

	ep.mu.Lock()
	delete(ep.running, msg.ID)
	ep.mu.Unlock()

	reply := message.Message{ID: msg.ID, Address: msg.Address}
	switch {
	case err == nil:
		reply.Kind = message.KindReply
		reply.Body = payload
	case isCanceled(err):
		reply.Kind = message.KindCanceled
	default:
		if fatal, ok := err.(*FatalError); ok {
			ep.log.Error("fatal handler error, terminating endpoint:", fatal.Err)
			ep.terminate(fatal)
			return
		}
		reply.Kind = message.KindError
		reply.Body, err = format.ToBytes(value.Dynamic{Value: value.String(err.Error())})
		if err != nil {
			ep.log.Error("error encoding handler error description:", err)
			return
		}
	}
	ep.enqueue(reply)
}

func isCanceled(err error) bool {
	return err == ErrCanceled || err == context.Canceled
}

func (ep *Endpoint) dispatchCancel(msg message.Message) {
	target, err := decodeCallID(msg.Body)
	if err != nil {
		ep.log.Error("dropping cancel message with a bad target id:", err)
		return
	}
	ep.mu.Lock()
	cancel, ok := ep.running[target]
	ep.mu.Unlock()
	if ok {
		cancel()
	} else {
		ep.log.Debug("cancel target", target, "is not being handled")
	}
	ep.handler.FireAndForget(msg.Address, Notification{Kind: msg.Kind, Payload: msg.Body, CallID: target})
}

func (ep *Endpoint) dispatchResponse(msg message.Message) {
	ep.mu.Lock()
	slot, ok := ep.ongoing[msg.ID]
	if ok {
		delete(ep.ongoing, msg.ID)
	}
	ep.mu.Unlock()
	if !ok {
		//	either the waiter dropped or the response is a duplicate
		ep.log.Debug("discarding response for unknown request id", msg.ID)
		return
	}
	resp := response{kind: msg.Kind, payload: msg.Body}
	if msg.Kind == message.KindError {
		description, err := decodeErrorDescription(msg.Body)
		if err != nil {
			ep.log.Error("error message with a non-string description:", err)
			description = fmt.Sprintf("undecodable error payload (%s)", err)
		}
		resp.description = description
	}
	slot <- resp
}

// Call sends a call request and blocks until its response arrives, the
// context ends, or the endpoint terminates. Exactly one of the three
// resolves the call; an abandoned waiter's late response is discarded.
func (ep *Endpoint) Call(ctx context.Context, address message.Address, payload []byte) (result []byte, err error) {
	_, wait, err := ep.CallID(ctx, address, payload)
	if err != nil {
		return
	}
	return wait()
}

// CallID reserves the request id of a call before sending it, so the
// caller can cancel it later.
func (ep *Endpoint) CallID(ctx context.Context, address message.Address, payload []byte) (id uint32, wait func() ([]byte, error), err error) {
	id, slot, err := ep.register()
	if err != nil {
		return
	}
	msg := message.Message{ID: id, Kind: message.KindCall, Address: address, Body: payload}
	if err = ep.enqueueWait(ctx, msg); err != nil {
		ep.unregister(id)
		return
	}
	wait = func() (result []byte, werr error) {
		select {
		case resp := <-slot:
			switch resp.kind {
			case message.KindReply:
				result = resp.payload
			case message.KindError:
				werr = &RemoteError{Description: resp.description}
			case message.KindCanceled:
				werr = ErrCallCanceled
			}
		case <-ctx.Done():
			ep.unregister(id)
			werr = ctx.Err()
		case <-ep.done:
			werr = ErrDispatchTerminated
		}
		return
	}
	return
}

// Post sends a fire-and-forget post request; it returns once the
// message is queued on the sink.
func (ep *Endpoint) Post(address message.Address, payload []byte) (err error) {
	return ep.oneway(message.Message{Kind: message.KindPost, Address: address, Body: payload})
}

// Event sends a fire-and-forget event notification.
func (ep *Endpoint) Event(address message.Address, payload []byte) (err error) {
	return ep.oneway(message.Message{Kind: message.KindEvent, Address: address, Body: payload})
}

// Cancel asks the remote to cooperatively stop handling the call with
// the given request id.
func (ep *Endpoint) Cancel(address message.Address, callID uint32) (err error) {
	body := encodeCallID(callID)
	return ep.oneway(message.Message{Kind: message.KindCancel, Address: address, Body: body})
}

// Capabilities advertises a capability map to the remote.
func (ep *Endpoint) Capabilities(address message.Address, payload []byte) (err error) {
	return ep.oneway(message.Message{Kind: message.KindCapabilities, Address: address, Body: payload})
}

func (ep *Endpoint) oneway(msg message.Message) (err error) {
	msg.ID = ep.allocateID()
	return ep.enqueueWait(context.Background(), msg)
}

func (ep *Endpoint) allocateID() (id uint32) {
	ep.mu.Lock()
	id = ep.nextID
	ep.nextID++
	if ep.nextID == 0 {
		//	id 0 is a non-addressable sentinel, skip it on wrap
		ep.nextID = 1
	}
	ep.mu.Unlock()
	return
}

func (ep *Endpoint) register() (id uint32, slot chan response, err error) {
	id = ep.allocateID()
	slot = make(chan response, 1)
	ep.mu.Lock()
	if _, exists := ep.ongoing[id]; exists {
		ep.mu.Unlock()
		err = &RequestIdAlreadyExistsError{ID: id}
		return
	}
	ep.ongoing[id] = slot
	ep.mu.Unlock()
	return
}

func (ep *Endpoint) unregister(id uint32) {
	ep.mu.Lock()
	delete(ep.ongoing, id)
	ep.mu.Unlock()
}

func (ep *Endpoint) enqueue(msg message.Message) {
	select {
	case ep.outgoing <- msg:
	case <-ep.done:
	}
}

func (ep *Endpoint) enqueueWait(ctx context.Context, msg message.Message) (err error) {
	select {
	case ep.outgoing <- msg:
	case <-ctx.Done():
		err = ctx.Err()
	case <-ep.done:
		err = ErrDispatchTerminated
	}
	return
}

func encodeCallID(callID uint32) []byte {
	w := format.NewWriter()
	w.WriteUInt32(callID)
	return w.Bytes()
}

func decodeCallID(payload []byte) (callID uint32, err error) {
	v, err := format.FromBytes(payload, types.UInt32())
	if err != nil {
		return
	}
	callID = uint32(v.(value.UInt32))
	return
}

func decodeErrorDescription(payload []byte) (description string, err error) {
	v, err := format.FromBytes(payload, nil)
	if err != nil {
		return
	}
	dynamic, ok := v.(value.Dynamic)
	if !ok {
		err = fmt.Errorf("error payload is not a dynamic value")
		return
	}
	str, ok := dynamic.Value.(value.String)
	if !ok {
		err = fmt.Errorf("error payload is a dynamic value but not a string")
		return
	}
	description = string(str)
	return
}
