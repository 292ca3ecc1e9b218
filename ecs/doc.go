// Package ecs mirrors grove scene activity into a [Donburi] world.
//
// [NewDonburiSink] publishes a [grove.MessageRecord] for every post a tree
// resolves as a typed Donburi event. Subscribe to [MessageEventType] in your
// ECS systems and drain it with ProcessEvents:
//
//	tree.SetMessageSink(ecs.NewDonburiSink(world))
//
// [Mirror] is a grove component that keeps one entity per node, carrying
// the node's id, path and world position, for systems that query the scene
// from the ECS side.
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
