package wltest

import (
	"fmt"

	"golang.org/x/exp/slices"
)

func (c *Compositor) handle(obj *object, method string, args []any, created []*object) error {
	switch obj.inter + "." + method {
	case "wl_display.sync":
		cb := created[0]
		c.send(cb, 0, "done", c.nextSerial())
		c.destroy(cb)

	case "wl_display.get_registry":
		c.registry = created[0]
		for _, g := range c.globals {
			c.advertise(g)
		}

	case "wl_registry.bind":
		return c.bind(args[0].(uint32), created[0])

	case "wl_surface.commit":
		for _, t := range c.toplevels {
			if (t.surface == obj) && !t.configured && !t.destroyed && !c.opts.Silent {
				t.configured = true
				c.configure(t, c.opts.InitialWidth, c.opts.InitialHeight, nil)
			}
		}

	case "wl_surface.frame":
		cb := created[0]
		c.send(cb, 0, "done", c.nextSerial())
		c.destroy(cb)

	case "xdg_wm_base.get_xdg_surface":
		surface, ok := c.objects.Get(args[1].(uint32)).(*object)
		if !ok || (surface.inter != "wl_surface") {
			return fmt.Errorf("get_xdg_surface: bad surface %v", args[1])
		}
		c.toplevels = append(c.toplevels, &toplevel{surface: surface, xdgSurface: created[0]})

	case "xdg_surface.get_toplevel":
		t := c.findToplevel(obj)
		if t == nil {
			return fmt.Errorf("get_toplevel: unknown xdg_surface %v", obj.ID())
		}
		t.toplevel = created[0]

	case "zxdg_output_manager_v1.get_xdg_output":
		out, ok := c.objects.Get(args[1].(uint32)).(*object)
		if !ok || (out.inter != "wl_output") {
			return fmt.Errorf("get_xdg_output: bad output %v", args[1])
		}
		xo := created[0]
		xo.output = out.output
		if (xo.output >= 0) && (xo.output < len(c.outputs)) {
			c.sendXdgOutput(xo, c.outputs[xo.output])
		}

	case "wl_shm.create_pool", "wl_shm_pool.create_buffer", "wl_compositor.create_surface",
		"wl_compositor.create_region", "xdg_wm_base.create_positioner", "xdg_wm_base.pong",
		"xdg_surface.get_popup":
		// Nothing to do beyond creating the new objects.

	case "xdg_toplevel.destroy":
		for _, t := range c.toplevels {
			if t.toplevel == obj {
				t.destroyed = true
			}
		}
		c.destroy(obj)

	case "wl_output.release":
		c.wlOutputs[obj.output] = slices.DeleteFunc(c.wlOutputs[obj.output], func(o *object) bool { return o == obj })
		c.destroy(obj)

	default:
		if method == "destroy" {
			c.destroy(obj)
		}
	}

	return nil
}

func (c *Compositor) bind(name uint32, obj *object) error {
	i := slices.IndexFunc(c.globals, func(g global) bool { return g.name == name })
	if i < 0 {
		return fmt.Errorf("bind: unknown global %v", name)
	}
	g := c.globals[i]
	if g.inter != obj.inter {
		return fmt.Errorf("bind: global %v is %v, not %v", name, g.inter, obj.inter)
	}
	if obj.version > g.version {
		return fmt.Errorf("bind: version %v of %v is higher than advertised %v", obj.version, g.inter, g.version)
	}

	switch obj.inter {
	case "wl_shm":
		for _, format := range c.opts.ShmFormats {
			c.send(obj, 0, "format", format)
		}

	case "xdg_wm_base":
		c.wmBase = obj

	case "wl_output":
		obj.output = g.output
		c.wlOutputs[g.output] = append(c.wlOutputs[g.output], obj)
		c.sendOutput(obj, c.outputs[g.output])
	}

	return nil
}

func (c *Compositor) window(i int) (*toplevel, error) {
	if (i < 0) || (i >= len(c.toplevels)) {
		return nil, fmt.Errorf("no window %v", i)
	}
	t := c.toplevels[i]
	if (t.toplevel == nil) || t.destroyed {
		return nil, fmt.Errorf("window %v has no toplevel", i)
	}
	return t, nil
}

// Configure sends a configuration sequence to the ith window that was
// created.
func (c *Compositor) Configure(i int, width, height int32, states ...uint32) error {
	c.m.Lock()
	defer c.m.Unlock()

	t, err := c.window(i)
	if err != nil {
		return err
	}
	t.configured = true
	c.configure(t, width, height, states)
	return nil
}

// ConfigureBounds sends recommended bounds to the ith window.
func (c *Compositor) ConfigureBounds(i int, width, height int32) error {
	c.m.Lock()
	defer c.m.Unlock()

	t, err := c.window(i)
	if err != nil {
		return err
	}
	if t.toplevel.version < 4 {
		return fmt.Errorf("configure_bounds needs version 4, bound %v", t.toplevel.version)
	}
	c.send(t.toplevel, 2, "configure_bounds", width, height)
	return nil
}

// CloseWindow asks the ith window to close.
func (c *Compositor) CloseWindow(i int) error {
	c.m.Lock()
	defer c.m.Unlock()

	t, err := c.window(i)
	if err != nil {
		return err
	}
	c.send(t.toplevel, 1, "close")
	return nil
}

// Enter tells the ith window that it is visible on the given output.
func (c *Compositor) Enter(i, output int) error {
	return c.enterOrLeave(i, output, 0, "enter")
}

// Leave tells the ith window that it is no longer on the given output.
func (c *Compositor) Leave(i, output int) error {
	return c.enterOrLeave(i, output, 1, "leave")
}

func (c *Compositor) enterOrLeave(i, output int, op uint16, name string) error {
	c.m.Lock()
	defer c.m.Unlock()

	t, err := c.window(i)
	if err != nil {
		return err
	}
	bound := c.wlOutputs[output]
	if len(bound) == 0 {
		return fmt.Errorf("output %v is not bound", output)
	}
	c.send(t.surface, op, name, bound[0])
	return nil
}

// Ping sends a ping through xdg_wm_base and returns its serial.
func (c *Compositor) Ping() (uint32, error) {
	c.m.Lock()
	defer c.m.Unlock()

	if c.wmBase == nil {
		return 0, fmt.Errorf("xdg_wm_base is not bound")
	}
	serial := c.nextSerial()
	c.send(c.wmBase, 0, "ping", serial)
	return serial, nil
}

// AddOutput advertises a new output and returns its index.
func (c *Compositor) AddOutput(out Output) int {
	c.m.Lock()
	defer c.m.Unlock()

	i := len(c.outputs)
	c.outputs = append(c.outputs, out)
	g := global{name: OutputName + uint32(i), inter: "wl_output", version: 4, output: i}
	c.globals = append(c.globals, g)
	c.advertise(g)
	return i
}

// RemoveOutput withdraws the output with the given index.
func (c *Compositor) RemoveOutput(i int) {
	c.RemoveGlobal(OutputName + uint32(i))
}

// RemoveGlobal withdraws the global with the given name.
func (c *Compositor) RemoveGlobal(name uint32) {
	c.m.Lock()
	defer c.m.Unlock()

	c.globals = slices.DeleteFunc(c.globals, func(g global) bool { return g.name == name })
	if c.registry != nil {
		c.send(c.registry, 1, "global_remove", name)
	}
}

// AddOutputManager advertises zxdg_output_manager_v1 after the fact.
func (c *Compositor) AddOutputManager() {
	c.m.Lock()
	defer c.m.Unlock()

	g := global{name: OutputManagerName, inter: "zxdg_output_manager_v1", version: 3, output: -1}
	c.globals = append(c.globals, g)
	c.advertise(g)
}

// Error sends a fatal protocol error about the display object.
func (c *Compositor) Error(code uint32, message string) {
	c.m.Lock()
	defer c.m.Unlock()

	c.send(c.display(), 0, "error", c.display(), code, message)
}
