package bind_group_provider

// BufferWrite describes a single GPU buffer write targeting a binding on a BindGroupProvider
// at a given byte offset. Binding VertexBinding targets the provider's vertex buffer.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}
