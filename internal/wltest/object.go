package wltest

import (
	"fmt"

	"deedles.dev/wlds/wire"
)

// method describes the arguments of a request. The characters of args
// are i (int), u (uint), f (fixed), s (string), o (object), n (new_id
// of interface child), N (untyped new_id), h (fd) and a (array).
type method struct {
	name  string
	args  string
	child string
}

var requests = map[string][]method{
	"wl_display": {
		{name: "sync", args: "n", child: "wl_callback"},
		{name: "get_registry", args: "n", child: "wl_registry"},
	},
	"wl_registry": {
		{name: "bind", args: "uN"},
	},
	"wl_compositor": {
		{name: "create_surface", args: "n", child: "wl_surface"},
		{name: "create_region", args: "n", child: "wl_region"},
	},
	"wl_region": {
		{name: "destroy"},
		{name: "add", args: "iiii"},
		{name: "subtract", args: "iiii"},
	},
	"wl_surface": {
		{name: "destroy"},
		{name: "attach", args: "oii"},
		{name: "damage", args: "iiii"},
		{name: "frame", args: "n", child: "wl_callback"},
		{name: "set_opaque_region", args: "o"},
		{name: "set_input_region", args: "o"},
		{name: "commit"},
		{name: "set_buffer_transform", args: "i"},
		{name: "set_buffer_scale", args: "i"},
		{name: "damage_buffer", args: "iiii"},
		{name: "offset", args: "ii"},
	},
	"wl_shm": {
		{name: "create_pool", args: "nhi", child: "wl_shm_pool"},
		{name: "release"},
	},
	"wl_shm_pool": {
		{name: "create_buffer", args: "niiiiu", child: "wl_buffer"},
		{name: "destroy"},
		{name: "resize", args: "i"},
	},
	"wl_buffer": {
		{name: "destroy"},
	},
	"wl_output": {
		{name: "release"},
	},
	"xdg_wm_base": {
		{name: "destroy"},
		{name: "create_positioner", args: "n", child: "xdg_positioner"},
		{name: "get_xdg_surface", args: "no", child: "xdg_surface"},
		{name: "pong", args: "u"},
	},
	"xdg_surface": {
		{name: "destroy"},
		{name: "get_toplevel", args: "n", child: "xdg_toplevel"},
		{name: "get_popup", args: "noo", child: "xdg_popup"},
		{name: "set_window_geometry", args: "iiii"},
		{name: "ack_configure", args: "u"},
	},
	"xdg_toplevel": {
		{name: "destroy"},
		{name: "set_parent", args: "o"},
		{name: "set_title", args: "s"},
		{name: "set_app_id", args: "s"},
		{name: "show_window_menu", args: "ouii"},
		{name: "move", args: "ou"},
		{name: "resize", args: "ouu"},
		{name: "set_max_size", args: "ii"},
		{name: "set_min_size", args: "ii"},
		{name: "set_maximized"},
		{name: "unset_maximized"},
		{name: "set_fullscreen", args: "o"},
		{name: "unset_fullscreen"},
		{name: "set_minimized"},
	},
	"zxdg_output_manager_v1": {
		{name: "destroy"},
		{name: "get_xdg_output", args: "no", child: "zxdg_output_v1"},
	},
	"zxdg_output_v1": {
		{name: "destroy"},
	},
}

// object is the server side of any protocol object. Requests are
// decoded generically from the method table and then handled by the
// compositor.
type object struct {
	wire.Base

	c       *Compositor
	inter   string
	version uint32

	// output is the index of the advertised output that a wl_output
	// or zxdg_output_v1 describes.
	output int
}

func (obj *object) Interface() string {
	return obj.inter
}

func (obj *object) MethodName(op uint16) string {
	methods := requests[obj.inter]
	if int(op) >= len(methods) {
		return wire.EventName(nil, op)
	}
	return methods[op].name
}

func (obj *object) Dispatch(msg *wire.MessageBuffer) error {
	methods := requests[obj.inter]
	if int(msg.Op()) >= len(methods) {
		return wire.UnknownOpError{Interface: obj.inter, Type: "request", Op: msg.Op()}
	}
	m := methods[msg.Op()]

	args := make([]any, 0, len(m.args))
	var created []*object
	for _, a := range m.args {
		switch a {
		case 'i':
			args = append(args, msg.ReadInt())
		case 'u', 'o':
			args = append(args, msg.ReadUint())
		case 'f':
			args = append(args, msg.ReadFixed())
		case 's':
			args = append(args, msg.ReadString())
		case 'a':
			args = append(args, msg.ReadArray())
		case 'h':
			file := msg.ReadFile()
			if file != nil {
				file.Close()
			}
			args = append(args, "fd")
		case 'n':
			id := msg.ReadUint()
			child := &object{c: obj.c, inter: m.child, version: obj.version, output: -1}
			obj.c.objects.Set(id, child)
			created = append(created, child)
			args = append(args, id)
		case 'N':
			nid := msg.ReadNewID()
			child := &object{c: obj.c, inter: nid.Interface, version: nid.Version, output: -1}
			obj.c.objects.Set(nid.ID, child)
			created = append(created, child)
			args = append(args, nid.Interface, nid.Version, nid.ID)
		default:
			panic(fmt.Errorf("bad argument type %q", a))
		}
	}
	if err := msg.Err(); err != nil {
		return err
	}

	obj.c.record(obj, m.name, args...)
	return obj.c.handle(obj, m.name, args, created)
}
