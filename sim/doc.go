// Package sim provides an in-memory Tox network for tests and demos.
//
// A Network hands out nodes through Constructor, which plugs into
// toxloop.New. Nodes find each other by public key, exchange friend
// requests, messages, group chats, file transfers and AV calls, and report
// everything through the callbacks the actor registered. Nothing touches a
// socket.
//
// Every node also records how it was used: operations that overlap on one
// facet, operations after Kill, and the order facets were killed in. Tests
// read those probes to check that an actor owns its handle exclusively.
//
//	net := sim.NewNetwork(&sim.Config{DefaultInterval: time.Millisecond})
//	alice, aliceEvents, _ := toxloop.New(net.Constructor(), nil)
//	bob, bobEvents, _ := toxloop.New(net.Constructor(), nil)
//	...
//	assert.Empty(t, net.Violations())
package sim
