/*
*	The service directory: the well-known service every session reaches
*	first, mapping service names to the endpoints that host them.
 */
package directory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/op/go-logging"

	"qi.dev/qi/channel"
	"qi.dev/qi/format"
	"qi.dev/qi/message"
	"qi.dev/qi/object"
	"qi.dev/qi/types"
	"qi.dev/qi/value"
)

// The directory itself is always service 1, object 1.
const ServiceID uint32 = 1
const ObjectID uint32 = 1

// Directory action ids.
const (
	ActionService           object.ActionID = 100
	ActionServices          object.ActionID = 101
	ActionRegisterService   object.ActionID = 102
	ActionUnregisterService object.ActionID = 103
	ActionServiceReady      object.ActionID = 104
	ActionUpdateServiceInfo object.ActionID = 105
	ActionMachineId         object.ActionID = 108
)

const ServiceInfoSignature = "(sIsI[s]ss)<ServiceInfo,name,serviceId,machineId,processId,endpoints,sessionId,objectUid>"

type ServiceInfo struct {
	Name      string
	ServiceId uint32
	MachineId string
	ProcessId uint32
	Endpoints []string
	SessionId string
	ObjectUid string
}

type ServiceNotFoundError struct {
	Name string
}

func (e *ServiceNotFoundError) Error() string {
	return fmt.Sprintf("no service named %q", e.Name)
}

type ServiceAlreadyExistsError struct {
	Name string
}

func (e *ServiceAlreadyExistsError) Error() string {
	return fmt.Sprintf("a service named %q is already registered", e.Name)
}

// Directory is the service directory contract.
type Directory interface {
	Service(name string) (ServiceInfo, error)
	Services() ([]ServiceInfo, error)
	RegisterService(info ServiceInfo) (serviceId uint32, err error)
	ServiceReady(serviceId uint32) error
	UnregisterService(serviceId uint32) error
	UpdateServiceInfo(info ServiceInfo) error
	MachineId() (string, error)
}

// InMemory is the process-local directory implementation served by
// qid. Services become visible to lookups only once ready.
type InMemory struct {
	machineId string

	mu       sync.Mutex
	nextId   uint32
	services map[uint32]*record
}

type record struct {
	info  ServiceInfo
	ready bool
}

func NewInMemory(machineId string) *InMemory {
	//	the directory itself holds service id 1; registrations start after it
	return &InMemory{
		machineId: machineId,
		nextId:    ServiceID + 1,
		services:  map[uint32]*record{},
	}
}

func (d *InMemory) Service(name string) (info ServiceInfo, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, rec := range d.services {
		if rec.info.Name == name && rec.ready {
			info = rec.info
			return
		}
	}
	err = &ServiceNotFoundError{Name: name}
	return
}

func (d *InMemory) Services() (infos []ServiceInfo, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, rec := range d.services {
		if rec.ready {
			infos = append(infos, rec.info)
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ServiceId < infos[j].ServiceId })
	return
}

func (d *InMemory) RegisterService(info ServiceInfo) (serviceId uint32, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, rec := range d.services {
		if rec.info.Name == info.Name {
			err = &ServiceAlreadyExistsError{Name: info.Name}
			return
		}
	}
	serviceId = d.nextId
	d.nextId++
	info.ServiceId = serviceId
	d.services[serviceId] = &record{info: info}
	return
}

func (d *InMemory) ServiceReady(serviceId uint32) (err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec, ok := d.services[serviceId]
	if !ok {
		return fmt.Errorf("no service with id %d", serviceId)
	}
	rec.ready = true
	return
}

func (d *InMemory) UnregisterService(serviceId uint32) (err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.services[serviceId]; !ok {
		return fmt.Errorf("no service with id %d", serviceId)
	}
	delete(d.services, serviceId)
	return
}

func (d *InMemory) UpdateServiceInfo(info ServiceInfo) (err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec, ok := d.services[info.ServiceId]
	if !ok {
		return fmt.Errorf("no service with id %d", info.ServiceId)
	}
	rec.info = info
	return
}

func (d *InMemory) MachineId() (string, error) {
	return d.machineId, nil
}

// NewHost exposes a directory as a servable object.
func NewHost(d Directory) *object.Host {
	meta := object.NewMetaObjectBuilder().
		SetDescription("the service directory").
		AddMethod(ActionService, "service", "(s)", ServiceInfoSignature).
		AddMethod(ActionServices, "services", "()", "["+ServiceInfoSignature+"]").
		AddMethod(ActionRegisterService, "registerService", "("+ServiceInfoSignature+")", "I").
		AddMethod(ActionUnregisterService, "unregisterService", "(I)", "v").
		AddMethod(ActionServiceReady, "serviceReady", "(I)", "v").
		AddMethod(ActionUpdateServiceInfo, "updateServiceInfo", "("+ServiceInfoSignature+")", "v").
		AddMethod(ActionMachineId, "machineId", "()", "s").
		AddSignal(object.ActionUserStart+6, "serviceAdded", "(Is)").
		AddSignal(object.ActionUserStart+7, "serviceRemoved", "(Is)").
		Build()

	host := object.NewHost(meta)
	host.On(ActionService, func(ctx context.Context, payload []byte) ([]byte, error) {
		args, err := format.FromBytes(payload, types.Tuple(types.String()))
		if err != nil {
			return nil, err
		}
		name := string(args.(value.Tuple).Elements[0].(value.String))
		info, err := d.Service(name)
		if err != nil {
			return nil, err
		}
		return encodeServiceInfo(info)
	})
	host.On(ActionServices, func(ctx context.Context, payload []byte) ([]byte, error) {
		infos, err := d.Services()
		if err != nil {
			return nil, err
		}
		list := make(value.List, len(infos))
		for i, info := range infos {
			v, err := value.ToValue(info)
			if err != nil {
				return nil, err
			}
			list[i] = v
		}
		return format.ToBytes(list)
	})
	host.On(ActionRegisterService, func(ctx context.Context, payload []byte) ([]byte, error) {
		info, err := decodeServiceInfoArg(payload)
		if err != nil {
			return nil, err
		}
		id, err := d.RegisterService(info)
		if err != nil {
			return nil, err
		}
		return format.ToBytes(value.UInt32(id))
	})
	host.On(ActionUnregisterService, func(ctx context.Context, payload []byte) ([]byte, error) {
		id, err := decodeServiceIdArg(payload)
		if err != nil {
			return nil, err
		}
		if err := d.UnregisterService(id); err != nil {
			return nil, err
		}
		return format.ToBytes(value.Unit{})
	})
	host.On(ActionServiceReady, func(ctx context.Context, payload []byte) ([]byte, error) {
		id, err := decodeServiceIdArg(payload)
		if err != nil {
			return nil, err
		}
		if err := d.ServiceReady(id); err != nil {
			return nil, err
		}
		return format.ToBytes(value.Unit{})
	})
	host.On(ActionUpdateServiceInfo, func(ctx context.Context, payload []byte) ([]byte, error) {
		info, err := decodeServiceInfoArg(payload)
		if err != nil {
			return nil, err
		}
		if err := d.UpdateServiceInfo(info); err != nil {
			return nil, err
		}
		return format.ToBytes(value.Unit{})
	})
	host.On(ActionMachineId, func(ctx context.Context, payload []byte) ([]byte, error) {
		id, err := d.MachineId()
		if err != nil {
			return nil, err
		}
		return format.ToBytes(value.String(id))
	})
	return host
}

func encodeServiceInfo(info ServiceInfo) (buf []byte, err error) {
	v, err := value.ToValue(info)
	if err != nil {
		return
	}
	return format.ToBytes(v)
}

func decodeServiceInfoArg(payload []byte) (info ServiceInfo, err error) {
	argType, err := types.Parse(ServiceInfoSignature)
	if err != nil {
		return
	}
	v, err := format.FromBytes(payload, types.Tuple(argType))
	if err != nil {
		return
	}
	err = value.FromValue(v.(value.Tuple).Elements[0], &info)
	return
}

func decodeServiceIdArg(payload []byte) (id uint32, err error) {
	v, err := format.FromBytes(payload, types.Tuple(types.UInt32()))
	if err != nil {
		return
	}
	id = uint32(v.(value.Tuple).Elements[0].(value.UInt32))
	return
}

// Server routes inbound session traffic to the directory object.
type Server struct {
	host *object.Host
	log  *logging.Logger
}

func NewServer(d Directory, log *logging.Logger) *Server {
	return &Server{host: NewHost(d), log: log}
}

func (s *Server) Call(ctx context.Context, address message.Address, payload []byte) (result []byte, err error) {
	if address.Service != ServiceID || address.Object != ObjectID {
		err = fmt.Errorf("no object at address %s", address)
		return
	}
	return s.host.Dispatch(ctx, object.ActionID(address.Action), payload)
}

func (s *Server) FireAndForget(address message.Address, notification channel.Notification) {
	s.log.Debug("ignoring", notification.Kind, "notification for", address)
}
