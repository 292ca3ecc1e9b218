// Package grove is a retained-mode 2D scene graph with path-addressed
// message routing.
//
// Grove provides the transform hierarchy, dirty-flag propagation, cached
// bounds, component lifecycle, a synchronous message router and a frame
// driver. Rendering backends live in sub-packages (render/canvas for a
// software canvas, render/ebitenr for [Ebitengine]); the core only
// guarantees that world transforms, alpha and visibility are correct when a
// driver reads them.
//
// # Quick start
//
//	tree := grove.NewTree(grove.Config{})
//	a := grove.NewNode("a")
//	_ = tree.Root().AddChild(a)
//	b := grove.NewRect("b", 16, 16, grove.ColorWhite)
//	_ = a.AddChild(b)
//
//	tree.Root().On("ping", func(m grove.Message) { ... })
//	_ = b.Post("~ping") // b, then a, then root
//
//	for running {
//		tree.Tick(dt)
//		_ = tree.Render(driver)
//	}
//
// # Scene graph
//
// Every element is a [Node]. Nodes form a tree rooted at [Tree.Root];
// children inherit their parent's transform and alpha. A node's path is the
// slash-joined names from the root ("root/a/b"). [Node.AddChild] refuses
// cycles with a [*HierarchyError]; lookups that miss return nil or false.
//
// Transforms are cached: setters mark [DirtyLocal] on the node, propagate
// [DirtyWorld] and [DirtyRender] to descendants, and invalidate
// [DirtyBounds] up through ancestors. [Node.World] and [Node.GetBounds]
// recompute lazily.
//
// # Messages
//
// Addresses follow
//
//	[~]name[@[pathMask]][#componentMask]
//
//	ping            the sender's own listeners
//	~ping           sender, parent, ..., root
//	ping@           root, ..., sender's parent, then the sender's subtree
//	ping@root/*/hud every node whose path matches the glob
//	ping@#Tween     "#" restricts delivery to component-owned listeners
//
// Registering with "name@" or "name@mask" makes an overheard listener that
// hears every post of name in the tree while its node's path matches mask.
// A post delivers to each (node, listener) pair at most once and snapshots
// its delivery list before invoking anything.
//
// # Frames
//
// [Tree.Tick] runs fixed-step updates, the update pass, the [Scheduler]'s
// tasks, then the post-update pass. [Tween] and [Follow] are ready-made
// components built on those passes (tweens via [gween]).
//
// [Ebitengine]: https://ebitengine.org
// [gween]: https://github.com/tanema/gween
package grove
