// Package simstream 是仿真传感器数据流的传输层
//
// 生产端（Server）为每个传感器创建一个 Stream，把 Stream 的 Token 通过
// 外部控制面交给消费端；消费端（Client）用 Token 订阅，服务端把每次
// Stream.Write 的负载扇出给全部订阅者。
//
// # 服务端
//
//	srv, err := simstream.NewServer(simstream.WithListenAddr("0.0.0.0:2001"))
//	if err != nil {
//	    return err
//	}
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
//	defer srv.Close()
//
//	stream, _ := srv.MakeStream()
//	token := stream.Token() // 交给消费端
//	stream.Write(simstream.NewBuffer(frame))
//
// # 客户端
//
//	cli, _ := simstream.NewClient()
//	_ = cli.Start(ctx)
//	defer cli.Close()
//
//	err := cli.Subscribe(ctx, token, func(buf simstream.Buffer) {
//	    decode(buf.Bytes())
//	})
//
// # 写入策略
//
// 默认异步模式：某个订阅者上一帧尚未发送完时新帧被丢弃，生产者从不阻塞。
// 同步模式（WithSynchronousMode）：生产者等待上一帧发送完，保证完整性，
// 作用范围是单个 Server 实例。
//
// 空闲超过 Timeout（默认 10s）的订阅会话被服务端关闭。
package simstream
