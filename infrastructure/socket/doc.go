// Package socket implements ports.Transport over a Wayland Unix socket.
//
// A Conn owns the client half of the connection: it allocates object ids,
// queues and writes requests, reads events together with the file
// descriptors passed alongside them, and routes each event through a
// middleware chain to the trampoline registered for its object.
//
// Example usage:
//
//	conn, err := socket.Dial(ctx, socket.Config{Display: "wayland-0"},
//	    socket.WithMiddleware(socket.PanicRecoveryMiddleware()),
//	)
//	if err != nil {
//	    return err
//	}
//	defer conn.Close()
//
//	for {
//	    if err := conn.Pump(ctx); err != nil {
//	        return err
//	    }
//	}
package socket
