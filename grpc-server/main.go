package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	reuseport "github.com/kavu/go_reuseport"
	pb "github.com/nci/biopar/worker/bioparservice"
	"google.golang.org/grpc"

	_ "net/http/pprof"
)

func main() {
	port := flag.Int("p", 6000, "gRPC server listening port.")
	poolSize := flag.Int("n", 8, "Maximum number of tiles retrieved concurrently.")
	maxRecvMsgSize := flag.Int("max_recv_msg_size", 64*1024*1024, "Maximum gRPC message size in bytes.")
	debug := flag.Bool("debug", false, "verbose logging")
	flag.Parse()

	p, err := pb.CreateProcessPool(*poolSize, *debug)
	if err != nil {
		log.Printf("Failed to create process pool: %v", err)
		os.Exit(2)
	}

	s := grpc.NewServer(grpc.MaxRecvMsgSize(*maxRecvMsgSize))
	pb.RegisterBioparServer(s, pb.NewServer(p))

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-signals
		log.Printf("shutting down, %d tasks queued", len(p.TaskQueue))
		s.GracefulStop()
		os.Exit(1)
	}()

	lis, err := reuseport.Listen("tcp", fmt.Sprintf(":%d", *port))
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	log.Printf("biopar worker listening on %v with %d workers", lis.Addr(), *poolSize)
	if err := s.Serve(lis); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
