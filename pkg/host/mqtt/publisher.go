package mqtt

import (
	"fmt"
	"strconv"
	"strings"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/dbglink/pkg/host"
)

// Publisher publishes the debug data of one device under <device>/.
type Publisher struct {
	Queue  *Queue
	Device string
}

// NewPublisher creates a Publisher.
func NewPublisher(q *Queue, device string) *Publisher {
	return &Publisher{Queue: q, Device: device}
}

// ErrorLogTopic returns the error log topic.
func (p *Publisher) ErrorLogTopic() string {
	return p.Device + "/errlog"
}

// StreamTopic returns the topic of stream id.
func (p *Publisher) StreamTopic(id byte) string {
	return fmt.Sprintf("%s/stream/%d", p.Device, id)
}

// GenericTopic returns the topic requesting generic request k.
func (p *Publisher) GenericTopic(k int) string {
	return fmt.Sprintf("%s/generic/%d", p.Device, k)
}

// PublishErrorLog publishes an error log.
func (p *Publisher) PublishErrorLog(log *host.ErrorLog) (paho.Token, error) {
	return p.publish(p.ErrorLogTopic(), NewErrorLogMsg(p.Device, log))
}

// PublishStreamRecord publishes a stream record.
func (p *Publisher) PublishStreamRecord(info *host.StreamInfo, rec *host.StreamRecord) (paho.Token, error) {
	return p.publish(p.StreamTopic(rec.StreamID), NewStreamRecordMsg(p.Device, info, rec))
}

func (p *Publisher) publish(topic string, msg proto.Message) (paho.Token, error) {
	data, err := proto.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return p.Queue.Pub(topic, data), nil
}

// HandleGeneric subscribes <device>/generic/+ and calls fn with the
// request index from the topic.
func (p *Publisher) HandleGeneric(fn func(k int)) *Subscription {
	return p.Queue.Sub(p.Device+"/generic/+", func(topic string, payload []byte) {
		k, err := strconv.Atoi(topic[strings.LastIndex(topic, "/")+1:])
		if err != nil {
			glog.Warningf("invalid generic topic %q", topic)
			return
		}
		fn(k)
	})
}
