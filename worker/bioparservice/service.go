package bioparservice

import (
	"golang.org/x/net/context"
	"google.golang.org/grpc"
)

const retrieveMethod = "/bioparservice.Biopar/Retrieve"

type BioparServer interface {
	Retrieve(context.Context, *RetrievalTask) (*RetrievalResult, error)
}

func RegisterBioparServer(s *grpc.Server, srv BioparServer) {
	s.RegisterService(&bioparServiceDesc, srv)
}

func retrieveHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(RetrievalTask)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BioparServer).Retrieve(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: retrieveMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(BioparServer).Retrieve(ctx, req.(*RetrievalTask))
	}
	return interceptor(ctx, in, info, handler)
}

var bioparServiceDesc = grpc.ServiceDesc{
	ServiceName: "bioparservice.Biopar",
	HandlerType: (*BioparServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Retrieve",
			Handler:    retrieveHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "bioparservice",
}

type BioparClient interface {
	Retrieve(ctx context.Context, in *RetrievalTask, opts ...grpc.CallOption) (*RetrievalResult, error)
}

type bioparClient struct {
	cc grpc.ClientConnInterface
}

func NewBioparClient(cc grpc.ClientConnInterface) BioparClient {
	return &bioparClient{cc}
}

func (c *bioparClient) Retrieve(ctx context.Context, in *RetrievalTask, opts ...grpc.CallOption) (*RetrievalResult, error) {
	out := new(RetrievalResult)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	err := c.cc.Invoke(ctx, retrieveMethod, in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}
